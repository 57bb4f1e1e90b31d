package assembler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/vector"
)

type fakeIndex struct {
	snippets []string
}

func (f *fakeIndex) Upsert(ctx context.Context, entry vector.Entry) error { return nil }
func (f *fakeIndex) Delete(ctx context.Context, id string) error          { return nil }
func (f *fakeIndex) Query(ctx context.Context, text string, topN int) []string {
	return f.snippets
}

func res(name, text string) models.Resource {
	return models.Resource{Name: name, URL: "u-" + name, ExtractedText: &text}
}

var defaultOpts = Options{MaxChars: 800, PerDocCap: 500, MaxDocs: 2, TopN: 5}

func TestEmptyInputReturnsSentinel(t *testing.T) {
	a := New(nil)
	out, used := a.BuildContext(context.Background(), nil, "anything", defaultOpts)
	require.Equal(t, EmptyContext, out)
	require.Empty(t, used)
}

func TestResourcesWithoutTextReturnSentinel(t *testing.T) {
	a := New(nil)
	out, used := a.BuildContext(context.Background(), []models.Resource{res("empty", "")}, "q", defaultOpts)
	require.Equal(t, EmptyContext, out)
	require.Empty(t, used)
}

func TestDirectStrategyFormatsEntries(t *testing.T) {
	a := New(nil)
	out, used := a.BuildContext(context.Background(), []models.Resource{
		res("handbook", "welcome to the handbook"),
	}, "q", defaultOpts)

	require.Contains(t, out, "Document: handbook")
	require.Contains(t, out, "Content: welcome to the handbook...")
	require.Len(t, used, 1)
}

func TestMaxDocsLimit(t *testing.T) {
	a := New(nil)
	resources := []models.Resource{
		res("a", "first"), res("b", "second"), res("c", "third"),
	}
	out, used := a.BuildContext(context.Background(), resources, "q", defaultOpts)

	require.Contains(t, out, "Document: a")
	require.Contains(t, out, "Document: b")
	require.NotContains(t, out, "Document: c")
	require.Len(t, used, 2)
}

func TestPerDocCapTruncates(t *testing.T) {
	a := New(nil)
	long := strings.Repeat("x", 2000)
	out, _ := a.BuildContext(context.Background(), []models.Resource{res("big", long)}, "q", defaultOpts)

	require.LessOrEqual(t, len(out), defaultOpts.MaxChars+entryOverhead+len("Document: big\nContent: ..."))
	require.Contains(t, out, strings.Repeat("x", 500)+"...")
	require.NotContains(t, out, strings.Repeat("x", 501))
}

func TestTotalBudgetBound(t *testing.T) {
	a := New(&fakeIndex{snippets: []string{strings.Repeat("s", 5000)}})
	long := strings.Repeat("y", 5000)
	resources := []models.Resource{res("one", long), res("two", long)}

	out, _ := a.BuildContext(context.Background(), resources, "query", defaultOpts)

	// Total output stays within budget plus per-entry formatting
	// overhead, whatever the inputs.
	limit := defaultOpts.MaxChars + entryOverhead*(defaultOpts.MaxDocs+1)
	require.LessOrEqual(t, len(out), limit)
}

func TestSimilarityAppendedWithinBudget(t *testing.T) {
	a := New(&fakeIndex{snippets: []string{"vector snippet"}})
	out, _ := a.BuildContext(context.Background(), []models.Resource{res("doc", "short")}, "query", defaultOpts)

	require.Contains(t, out, SimilarityHeader)
	require.Contains(t, out, "vector snippet")
}

func TestSimilaritySkippedWithoutQuery(t *testing.T) {
	a := New(&fakeIndex{snippets: []string{"vector snippet"}})
	out, _ := a.BuildContext(context.Background(), []models.Resource{res("doc", "short")}, "  ", defaultOpts)

	require.NotContains(t, out, SimilarityHeader)
}

func TestZeroMatchesFallsBackToDirect(t *testing.T) {
	a := New(&fakeIndex{snippets: nil})
	out, used := a.BuildContext(context.Background(), []models.Resource{res("doc", "content")}, "query", defaultOpts)

	require.Contains(t, out, "Document: doc")
	require.NotContains(t, out, SimilarityHeader)
	require.Len(t, used, 1)
}

func TestSimilarityAloneWhenNoDirectText(t *testing.T) {
	a := New(&fakeIndex{snippets: []string{"only from vectors"}})
	out, used := a.BuildContext(context.Background(), nil, "query", defaultOpts)

	require.Contains(t, out, SimilarityHeader)
	require.Contains(t, out, "only from vectors")
	require.Empty(t, used)
}
