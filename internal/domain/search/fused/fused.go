package fused

import "github.com/scriptorium/folio/internal/domain/search/source"

// Result is one row of fused output: a document with its aggregated
// score and the per-source contributions that produced it.
type Result struct {
	documentID      string
	finalScore      float64
	sources         []source.Source
	componentScores map[source.Source]float64
	snippet         string
	metadata        map[string]string
}

// New creates a fused result.
func New(
	documentID string, finalScore float64,
	sources []source.Source, componentScores map[source.Source]float64,
	snippet string, metadata map[string]string,
) Result {
	return Result{
		documentID:      documentID,
		finalScore:      finalScore,
		sources:         sources,
		componentScores: componentScores,
		snippet:         snippet,
		metadata:        metadata,
	}
}

// DocumentID returns the document identifier.
func (r *Result) DocumentID() string { return r.documentID }

// FinalScore returns the aggregated fusion score.
func (r *Result) FinalScore() float64 { return r.finalScore }

// Sources returns the backends that contributed to this result,
// in the order they were fused.
func (r *Result) Sources() []source.Source { return r.sources }

// ComponentScores returns each source's individual contribution.
func (r *Result) ComponentScores() map[source.Source]float64 { return r.componentScores }

// Snippet returns the display excerpt from the best-ranked contributing hit.
func (r *Result) Snippet() string { return r.snippet }

// Metadata returns the metadata of the best-ranked contributing hit.
func (r *Result) Metadata() map[string]string { return r.metadata }

// HasSource reports whether the given backend contributed to this result.
func (r *Result) HasSource(s source.Source) bool {
	for _, got := range r.sources {
		if got == s {
			return true
		}
	}
	return false
}
