// Package assembler turns an authorized resource set plus a similarity
// query into one bounded text blob safe to embed in a prompt. The two
// sourcing strategies — direct store order and vector similarity — live
// here and nowhere else.
package assembler

import (
	"context"
	"strings"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/vector"
)

// EmptyContext is the exact sentinel downstream code matches on to
// detect the no-documents state. Do not reword it.
const EmptyContext = "No documents available for reference."

// SimilarityHeader introduces the vector-sourced section of the blob.
const SimilarityHeader = "Relevant Context from Vector Search:"

// entryOverhead approximates the per-entry formatting cost (header,
// ellipsis, joiner) counted against the character budget.
const entryOverhead = 50

type Options struct {
	MaxChars  int // total budget for the whole blob
	PerDocCap int // per-document text cap
	MaxDocs   int // direct-strategy document limit
	TopN      int // similarity matches requested
}

type Assembler struct {
	index vector.Index
	log   *logger.Logger
}

// New builds an assembler. A nil index disables the similarity strategy
// and every call runs the direct strategy alone.
func New(index vector.Index) *Assembler {
	return &Assembler{index: index, log: logger.New("assembler")}
}

// BuildContext assembles the prompt context. Resources must already be
// authorization-filtered; order is preserved as supplied. The second
// return value lists the IDs of resources that contributed text, for
// access accounting.
//
// The similarity strategy runs when a query is given and the index is
// configured; zero matches or an index failure fall back to the direct
// result alone, never to an empty blob.
func (a *Assembler) BuildContext(ctx context.Context, resources []models.Resource, query string, opts Options) (string, []string) {
	parts, used, total := a.direct(resources, opts)

	if a.index != nil && strings.TrimSpace(query) != "" {
		if sim := a.similarity(ctx, query, opts, total); sim != "" {
			parts = append(parts, sim)
		}
	}

	if len(parts) == 0 {
		return EmptyContext, nil
	}
	return strings.Join(parts, "\n\n"), used
}

// direct is strategy (a): up to MaxDocs entries in supplied order, each
// truncated to PerDocCap, under the running MaxChars budget. Documents
// that no longer fit in the remaining budget are skipped, not trimmed
// to slivers.
func (a *Assembler) direct(resources []models.Resource, opts Options) ([]string, []string, int) {
	var parts []string
	var used []string
	total := 0

	limit := len(resources)
	if opts.MaxDocs > 0 && opts.MaxDocs < limit {
		limit = opts.MaxDocs
	}

	for _, res := range resources[:limit] {
		text := strings.TrimSpace(res.Text())
		if text == "" {
			continue
		}

		remaining := opts.MaxChars - total
		if remaining <= 0 {
			break
		}

		capN := opts.PerDocCap
		if room := remaining - entryOverhead; room < capN {
			capN = room
		}
		if capN <= 0 {
			break
		}

		snippet := truncateRunes(text, capN)
		parts = append(parts, "Document: "+res.Name+"\nContent: "+snippet+"...")
		used = append(used, res.ID)
		total += len(snippet) + len(res.Name) + entryOverhead
	}

	return parts, used, total
}

// similarity is strategy (b): query the vector index and fit whatever
// comes back into the budget left over from the direct pass. Returns ""
// when there are no matches or no room, which the caller treats as
// "direct strategy only".
func (a *Assembler) similarity(ctx context.Context, query string, opts Options, usedChars int) string {
	snippets := a.index.Query(ctx, query, opts.TopN)
	if len(snippets) == 0 {
		return ""
	}

	remaining := opts.MaxChars - usedChars - entryOverhead
	if remaining <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(SimilarityHeader)
	for _, snippet := range snippets {
		snippet = strings.TrimSpace(snippet)
		if snippet == "" {
			continue
		}
		if remaining <= 0 {
			break
		}
		snippet = truncateRunes(snippet, remaining)
		sb.WriteString("\n")
		sb.WriteString(snippet)
		remaining -= len(snippet)
	}

	if sb.Len() == len(SimilarityHeader) {
		return ""
	}
	return sb.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
