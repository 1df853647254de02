package search

import (
	"sort"

	"go.uber.org/zap"

	"github.com/scriptorium/folio/internal/domain/search/fused"
	"github.com/scriptorium/folio/internal/domain/search/fusion"
	"github.com/scriptorium/folio/internal/domain/search/hit"
	"github.com/scriptorium/folio/internal/domain/search/source"
)

// RankedList is one provider's result list, ordered by the provider's
// native relevance descending. That ordering is authoritative: the
// engine assigns ranks from it and never re-sorts the input.
// Normalized marks scores that are already in [0,1] and should skip
// min-max normalization in weighted fusion.
type RankedList struct {
	Source     source.Source
	Hits       []hit.Hit
	Normalized bool
}

// Engine merges independently ranked result lists into one consensus
// ranking. It is pure in-memory computation: stateless, no I/O, and it
// cannot fail on well-formed input; hits without a document ID are
// skipped individually with a warning.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a fusion engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Fuse merges the given lists with the configured method. The output is
// sorted by final score descending and contains at most one entry per
// document ID; it is never longer than the union of input document IDs.
// Truncation to the result limit is the caller's job, strictly after
// fusion.
//
// Ties break by contributing source count (more sources first), then by
// first-seen input order, so identical inputs always produce identical
// ordering regardless of which provider responded first.
func (e *Engine) Fuse(cfg fusion.Config, lists []RankedList) []fused.Result {
	switch cfg.Method() {
	case fusion.ReciprocalRank:
		return e.fuse(lists, func(_ RankedList, hits []hit.Hit) []float64 {
			out := make([]float64, len(hits))
			for i := range hits {
				out[i] = 1.0 / float64(cfg.RRFK()+hits[i].Rank())
			}
			return out
		})
	default:
		return e.fuse(lists, func(list RankedList, hits []hit.Hit) []float64 {
			scores := make([]float64, len(hits))
			for i := range hits {
				scores[i] = hits[i].RawScore()
			}
			if !list.Normalized {
				scores = Normalize(scores)
			}
			w := cfg.Weight(list.Source)
			for i := range scores {
				scores[i] *= w
			}
			return scores
		})
	}
}

// accumulator collects one document's contributions across lists.
type accumulator struct {
	documentID string
	score      float64
	sources    []source.Source
	components map[source.Source]float64
	snippet    string
	metadata   map[string]string
	bestRank   int
	firstSeen  int
}

// fuse runs the shared accumulate-and-sort skeleton. contribute maps a
// prepared list to per-hit score contributions; accumulation per
// document is a plain sum, so the result is independent of list order
// up to the deterministic tie-break.
func (e *Engine) fuse(
	lists []RankedList,
	contribute func(list RankedList, hits []hit.Hit) []float64,
) []fused.Result {
	accs := make(map[string]*accumulator)
	var order []*accumulator

	for _, list := range lists {
		hits := e.prepare(list)
		if len(hits) == 0 {
			continue
		}
		contributions := contribute(list, hits)

		for i := range hits {
			h := &hits[i]
			a, ok := accs[h.DocumentID()]
			if !ok {
				a = &accumulator{
					documentID: h.DocumentID(),
					components: make(map[source.Source]float64, len(lists)),
					snippet:    h.Snippet(),
					metadata:   h.Metadata(),
					bestRank:   h.Rank(),
					firstSeen:  len(order),
				}
				accs[h.DocumentID()] = a
				order = append(order, a)
			}

			a.score += contributions[i]
			a.components[list.Source] += contributions[i]
			if !containsSource(a.sources, list.Source) {
				a.sources = append(a.sources, list.Source)
			}
			// Display fields come from the best-ranked occurrence.
			if h.Rank() < a.bestRank {
				a.bestRank = h.Rank()
				a.snippet = h.Snippet()
				a.metadata = h.Metadata()
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		if len(order[i].sources) != len(order[j].sources) {
			return len(order[i].sources) > len(order[j].sources)
		}
		return order[i].firstSeen < order[j].firstSeen
	})

	results := make([]fused.Result, 0, len(order))
	for _, a := range order {
		results = append(results, fused.New(
			a.documentID, a.score, a.sources, a.components, a.snippet, a.metadata,
		))
	}
	return results
}

// prepare dedups a provider list by document ID and assigns 1-based
// ranks. Semantic lists carry multiple chunks per document; the list is
// relevance-ordered, so the first occurrence is the best-scoring chunk
// and later ones are dropped. Hits missing a document ID are skipped,
// not fatal.
func (e *Engine) prepare(list RankedList) []hit.Hit {
	seen := make(map[string]bool, len(list.Hits))
	out := make([]hit.Hit, 0, len(list.Hits))

	for i := range list.Hits {
		h := list.Hits[i]
		if h.DocumentID() == "" {
			e.logger.Warn("skipping hit without document id",
				zap.String("source", string(list.Source)),
				zap.Int("position", i),
			)
			continue
		}
		if seen[h.DocumentID()] {
			continue
		}
		seen[h.DocumentID()] = true
		out = append(out, h.WithRank(len(out)+1))
	}
	return out
}

func containsSource(ss []source.Source, s source.Source) bool {
	for _, got := range ss {
		if got == s {
			return true
		}
	}
	return false
}
