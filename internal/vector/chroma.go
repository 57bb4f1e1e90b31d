package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// ChromaIndex talks to a Chroma server over its REST API. Collection
// resolution is lazy and cached; every call re-resolves after a miss so
// a restarted server does not wedge the client.
type ChromaIndex struct {
	baseURL    string
	collection string
	client     *http.Client
	log        *logger.Logger

	mu           sync.Mutex
	collectionID string
}

func NewChromaIndex(baseURL, collection string) *ChromaIndex {
	return &ChromaIndex{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		client:     &http.Client{Timeout: 30 * time.Second},
		log:        logger.New("chroma"),
	}
}

var _ Index = (*ChromaIndex)(nil)

func (c *ChromaIndex) Upsert(ctx context.Context, entry Entry) error {
	id, err := c.collectionIDLocked(ctx)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"ids":       []string{entry.ID},
		"documents": []string{entry.Text},
		"metadatas": []map[string]string{entry.Metadata},
	}
	if err := c.post(ctx, fmt.Sprintf("/api/v1/collections/%s/upsert", id), body, nil); err != nil {
		c.invalidate()
		return fmt.Errorf("chroma upsert: %w", err)
	}
	return nil
}

// Query returns the top-N matching documents. Failures are logged and
// degrade to nil; the caller must treat an empty result as "fall back
// to the direct strategy", never as an error.
func (c *ChromaIndex) Query(ctx context.Context, text string, topN int) []string {
	if topN <= 0 {
		topN = 5
	}

	id, err := c.collectionIDLocked(ctx)
	if err != nil {
		c.log.Warn("Vector query skipped: %v", err)
		return nil
	}

	body := map[string]interface{}{
		"query_texts": []string{text},
		"n_results":   topN,
	}
	var resp struct {
		Documents [][]string `json:"documents"`
	}
	if err := c.post(ctx, fmt.Sprintf("/api/v1/collections/%s/query", id), body, &resp); err != nil {
		c.invalidate()
		c.log.Warn("Vector query failed: %v", err)
		return nil
	}

	if len(resp.Documents) == 0 {
		return nil
	}
	return resp.Documents[0]
}

func (c *ChromaIndex) Delete(ctx context.Context, id string) error {
	collID, err := c.collectionIDLocked(ctx)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"ids": []string{id}}
	if err := c.post(ctx, fmt.Sprintf("/api/v1/collections/%s/delete", collID), body, nil); err != nil {
		c.invalidate()
		return fmt.Errorf("chroma delete: %w", err)
	}
	return nil
}

func (c *ChromaIndex) collectionIDLocked(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collectionID != "" {
		return c.collectionID, nil
	}

	body := map[string]interface{}{
		"name":          c.collection,
		"get_or_create": true,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/api/v1/collections", body, &resp); err != nil {
		return "", fmt.Errorf("chroma get_or_create collection: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("chroma returned empty collection id for %q", c.collection)
	}
	c.collectionID = resp.ID
	return c.collectionID, nil
}

func (c *ChromaIndex) invalidate() {
	c.mu.Lock()
	c.collectionID = ""
	c.mu.Unlock()
}

func (c *ChromaIndex) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
