// Package vector is the similarity-search side channel. Entries are
// keyed by resource URL so the index mirrors the resource store; the
// two fail independently and the context assembler falls back to the
// direct strategy when this one under-returns.
package vector

import "context"

// Entry is one document in the index.
type Entry struct {
	ID       string            // resource URL
	Text     string            // extracted text
	Metadata map[string]string // name, url
}

// Index abstracts the similarity store. Query never returns an error:
// internal failures degrade to an empty result so a broken index can
// never block answering.
type Index interface {
	Upsert(ctx context.Context, entry Entry) error
	Query(ctx context.Context, text string, topN int) []string
	Delete(ctx context.Context, id string) error
}
