package search

import (
	"context"

	"github.com/scriptorium/folio/internal/domain/search/filter"
	"github.com/scriptorium/folio/internal/domain/search/hit"
)

// LexicalProvider is the full-text search backend contract. It receives
// the already-translated boolean/phrase query expression and returns
// hits sorted by backend-native relevance descending. An empty query
// expression yields no matches, not an error.
type LexicalProvider interface {
	Search(ctx context.Context, query string, limit int, f filter.Filter) ([]hit.Hit, error)
}

// SemanticProvider is the embedding-similarity backend contract. It
// receives the raw query text and returns chunk-level hits sorted by
// similarity descending, with raw scores reported as 1 - distance so
// that higher always means more similar. A document may appear several
// times, once per matching chunk.
type SemanticProvider interface {
	Search(ctx context.Context, query string, limit int, f filter.Filter) ([]hit.Hit, error)
}
