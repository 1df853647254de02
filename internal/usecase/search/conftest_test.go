package search

import (
	"context"
	"testing"

	"github.com/scriptorium/folio/internal/domain/search/filter"
	"github.com/scriptorium/folio/internal/domain/search/fusion"
	"github.com/scriptorium/folio/internal/domain/search/hit"
	"github.com/scriptorium/folio/internal/domain/search/request"
	"github.com/scriptorium/folio/internal/domain/search/source"
)

// --- Mocks ---

type mockLexical struct {
	hits      []hit.Hit
	err       error
	called    bool
	lastQuery string
	lastLimit int
}

func (m *mockLexical) Search(
	_ context.Context, query string, limit int, _ filter.Filter,
) ([]hit.Hit, error) {
	m.called = true
	m.lastQuery = query
	m.lastLimit = limit
	return m.hits, m.err
}

type mockSemantic struct {
	hits      []hit.Hit
	err       error
	called    bool
	lastQuery string
	lastLimit int
	searchFn  func(ctx context.Context) ([]hit.Hit, error)
}

func (m *mockSemantic) Search(
	ctx context.Context, query string, limit int, _ filter.Filter,
) ([]hit.Hit, error) {
	m.called = true
	m.lastQuery = query
	m.lastLimit = limit
	if m.searchFn != nil {
		return m.searchFn(ctx)
	}
	return m.hits, m.err
}

// --- Fixtures ---

func lexHit(id string, score float64) hit.Hit {
	return hit.New(id, score, source.Lexical, "snippet-"+id, map[string]string{"title": "doc-" + id})
}

func semHit(id string, score float64) hit.Hit {
	return hit.New(id, score, source.Semantic, "chunk-"+id, map[string]string{"title": "doc-" + id})
}

func mustConfig(t *testing.T, m fusion.Method, semW, lexW float64, limit int) fusion.Config {
	t.Helper()
	cfg, err := fusion.NewConfig(m, semW, lexW, 0, limit, 2)
	if err != nil {
		t.Fatalf("fusion.NewConfig: %v", err)
	}
	return cfg
}

func mustRequest(
	t *testing.T, query string, sources []source.Source, cfg fusion.Config,
) *request.Request {
	t.Helper()
	req, err := request.New(query, sources, cfg, filter.Filter{}, false)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}
