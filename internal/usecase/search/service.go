package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scriptorium/folio/internal/domain"
	"github.com/scriptorium/folio/internal/domain/search/fused"
	"github.com/scriptorium/folio/internal/domain/search/fusion"
	"github.com/scriptorium/folio/internal/domain/search/hit"
	"github.com/scriptorium/folio/internal/domain/search/request"
	"github.com/scriptorium/folio/internal/domain/search/source"
	"github.com/scriptorium/folio/internal/metrics"
)

// DefaultProviderTimeout bounds each backend call independently. A timed
// out backend degrades the response instead of failing it.
const DefaultProviderTimeout = 10 * time.Second

// DefaultFacetFields are the metadata keys counted when facets are requested.
var DefaultFacetFields = []string{"source_type", "language", "dynasty"}

// FacetCount is one facet value with its occurrence count over the fused
// result set.
type FacetCount struct {
	Value string
	Count int
}

// Response is the assembled output of one hybrid search call.
type Response struct {
	Results []fused.Result
	// Total is the number of fused candidates before truncation.
	Total   int
	Elapsed time.Duration
	Method  fusion.Method
	Query   string
	// Sources echoes the requested backends.
	Sources []source.Source
	// Degraded is set when at least one backend failed but others
	// produced results.
	Degraded      bool
	FailedSources []source.Source
	Facets        map[string][]FacetCount
}

// Service coordinates concurrent backend calls, normalization, fusion
// and response shaping. It holds no per-request state; calling it twice
// with identical inputs against unchanged backends yields identical
// output.
type Service struct {
	lexical         LexicalProvider
	semantic        SemanticProvider
	translator      *Translator
	engine          *Engine
	providerTimeout time.Duration
	facetFields     []string
	logger          *zap.Logger
}

// New creates a hybrid search service. Either provider may be nil; a
// request naming an unconfigured backend is rejected before any call is
// made.
func New(
	lexical LexicalProvider, semantic SemanticProvider,
	translator *Translator, logger *zap.Logger,
) *Service {
	if translator == nil {
		translator = NewTranslator("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		lexical:         lexical,
		semantic:        semantic,
		translator:      translator,
		engine:          NewEngine(logger),
		providerTimeout: DefaultProviderTimeout,
		facetFields:     DefaultFacetFields,
		logger:          logger,
	}
}

// WithProviderTimeout overrides the per-backend call timeout.
func (s *Service) WithProviderTimeout(d time.Duration) *Service {
	if d > 0 {
		s.providerTimeout = d
	}
	return s
}

// WithFacetFields overrides the metadata keys used for facet counts.
func (s *Service) WithFacetFields(fields []string) *Service {
	if len(fields) > 0 {
		s.facetFields = fields
	}
	return s
}

// Search runs the enabled backends concurrently, fuses their results
// and truncates to the configured limit strictly after fusion, so the
// final page is chosen from the full candidate pool.
//
// A single backend failure or timeout is logged and surfaced via
// Response.Degraded; the error return is used only when the request
// names an unconfigured backend or every enabled backend failed.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	start := time.Now()
	cfg := req.Fusion()
	mode := modeLabel(req.Sources())

	calls, err := s.plan(req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(mode, "error").Inc()
		return nil, err
	}

	outcomes := s.fanOut(ctx, calls)

	var (
		lists  []RankedList
		failed []source.Source
		errs   []error
	)
	for _, o := range outcomes {
		if o.err != nil {
			failed = append(failed, o.src)
			errs = append(errs, domain.NewProviderError(o.src, o.err))
			s.logger.Warn("search provider failed",
				zap.String("source", string(o.src)),
				zap.String("query", req.Query()),
				zap.Error(o.err),
			)
			metrics.ProviderFailuresTotal.WithLabelValues(string(o.src), failureReason(o.err)).Inc()
			continue
		}
		lists = append(lists, RankedList{Source: o.src, Hits: o.hits})
	}

	if len(errs) == len(outcomes) {
		metrics.SearchRequestsTotal.WithLabelValues(mode, "error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrAllProvidersFailed, errors.Join(errs...))
	}

	all := s.engine.Fuse(cfg, lists)
	metrics.FusedCandidatesTotal.WithLabelValues(string(cfg.Method())).Observe(float64(len(all)))

	results := all
	if len(results) > cfg.Limit() {
		results = results[:cfg.Limit()]
	}

	var facets map[string][]FacetCount
	if req.IncludeFacets() {
		facets = s.facets(all)
	}

	status := "success"
	if len(failed) > 0 {
		status = "degraded"
	}
	elapsed := time.Since(start)
	metrics.SearchRequestsTotal.WithLabelValues(mode, status).Inc()
	metrics.SearchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())

	s.logger.Debug("search completed",
		zap.String("query", req.Query()),
		zap.String("method", string(cfg.Method())),
		zap.Int("candidates", len(all)),
		zap.Int("returned", len(results)),
		zap.Bool("degraded", len(failed) > 0),
		zap.Duration("elapsed", elapsed),
	)

	return &Response{
		Results:       results,
		Total:         len(all),
		Elapsed:       elapsed,
		Method:        cfg.Method(),
		Query:         req.Query(),
		Sources:       req.Sources(),
		Degraded:      len(failed) > 0,
		FailedSources: failed,
		Facets:        facets,
	}, nil
}

// providerCall is one planned backend invocation.
type providerCall struct {
	src source.Source
	run func(ctx context.Context) ([]hit.Hit, error)
}

// plan binds each requested source to its provider. The lexical query
// is translated here, once, before fan-out.
func (s *Service) plan(req *request.Request) ([]providerCall, error) {
	limit := req.Fusion().CandidateLimit()
	filters := req.Filters()

	calls := make([]providerCall, 0, len(req.Sources()))
	for _, src := range req.Sources() {
		switch src {
		case source.Lexical:
			if s.lexical == nil {
				return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotConfigured, src)
			}
			tsquery := s.translator.Translate(req.Query())
			calls = append(calls, providerCall{
				src: source.Lexical,
				run: func(ctx context.Context) ([]hit.Hit, error) {
					return s.lexical.Search(ctx, tsquery, limit, filters)
				},
			})
		case source.Semantic:
			if s.semantic == nil {
				return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotConfigured, src)
			}
			query := req.Query()
			calls = append(calls, providerCall{
				src: source.Semantic,
				run: func(ctx context.Context) ([]hit.Hit, error) {
					return s.semantic.Search(ctx, query, limit, filters)
				},
			})
		}
	}
	return calls, nil
}

// outcome is one settled backend call.
type outcome struct {
	src  source.Source
	hits []hit.Hit
	err  error
}

// fanOut runs the planned calls in parallel and waits for all of them
// to settle, collecting each failure individually instead of cancelling
// the rest on the first error. Each call carries its own timeout.
func (s *Service) fanOut(ctx context.Context, calls []providerCall) []outcome {
	outcomes := make([]outcome, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call providerCall) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
			defer cancel()

			begin := time.Now()
			hits, err := call.run(callCtx)
			metrics.ProviderRequestDuration.
				WithLabelValues(string(call.src)).
				Observe(time.Since(begin).Seconds())

			outcomes[i] = outcome{src: call.src, hits: hits, err: err}
		}(i, call)
	}

	wg.Wait()
	return outcomes
}

// facets counts metadata values over the full fused candidate set (not
// the truncated page), most frequent first.
func (s *Service) facets(results []fused.Result) map[string][]FacetCount {
	out := make(map[string][]FacetCount, len(s.facetFields))

	for _, field := range s.facetFields {
		counts := make(map[string]int)
		for i := range results {
			if v := results[i].Metadata()[field]; v != "" {
				counts[v]++
			}
		}
		if len(counts) == 0 {
			continue
		}

		fcs := make([]FacetCount, 0, len(counts))
		for v, c := range counts {
			fcs = append(fcs, FacetCount{Value: v, Count: c})
		}
		sort.Slice(fcs, func(i, j int) bool {
			if fcs[i].Count != fcs[j].Count {
				return fcs[i].Count > fcs[j].Count
			}
			return fcs[i].Value < fcs[j].Value
		})
		out[field] = fcs
	}
	return out
}

func modeLabel(sources []source.Source) string {
	if len(sources) > 1 {
		return "hybrid"
	}
	if len(sources) == 1 {
		return string(sources[0])
	}
	return "none"
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
