package request

import (
	"fmt"

	"github.com/scriptorium/folio/internal/domain/search/filter"
	"github.com/scriptorium/folio/internal/domain/search/fusion"
	"github.com/scriptorium/folio/internal/domain/search/source"
)

// MaxQueryLength is the maximum allowed search query length.
const MaxQueryLength = 4096

// Request is a validated hybrid search query.
type Request struct {
	query         string
	sources       []source.Source
	fusionCfg     fusion.Config
	filters       filter.Filter
	includeFacets bool
}

// New validates and normalizes search parameters.
// An empty source list enables every backend; duplicates are removed
// while preserving order.
func New(
	query string,
	sources []source.Source,
	fusionCfg fusion.Config,
	filters filter.Filter,
	includeFacets bool,
) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}

	if len(sources) == 0 {
		sources = source.All()
	}
	seen := make(map[source.Source]bool, len(sources))
	deduped := make([]source.Source, 0, len(sources))
	for _, s := range sources {
		if !s.IsValid() {
			return Request{}, fmt.Errorf("invalid search source: %q", s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		deduped = append(deduped, s)
	}

	return Request{
		query:         query,
		sources:       deduped,
		fusionCfg:     fusionCfg,
		filters:       filters,
		includeFacets: includeFacets,
	}, nil
}

// Query returns the raw search query text.
func (r *Request) Query() string { return r.query }

// Sources returns the enabled backends in request order.
func (r *Request) Sources() []source.Source { return r.sources }

// HasSource reports whether the given backend is enabled.
func (r *Request) HasSource(s source.Source) bool {
	for _, got := range r.sources {
		if got == s {
			return true
		}
	}
	return false
}

// Fusion returns the per-search fusion configuration.
func (r *Request) Fusion() fusion.Config { return r.fusionCfg }

// Filters returns the provider filter, passed through unmodified.
func (r *Request) Filters() filter.Filter { return r.filters }

// IncludeFacets reports whether facet counts should be attached.
func (r *Request) IncludeFacets() bool { return r.includeFacets }
