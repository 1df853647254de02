package hit

import "github.com/scriptorium/folio/internal/domain/search/source"

// Hit is a single match candidate from one search backend.
//
// RawScore is provider-native: the lexical backend reports an unbounded
// rank weight, the semantic backend reports 1 - distance. Scores from
// different sources are not comparable until normalized.
type Hit struct {
	documentID string
	rawScore   float64
	src        source.Source
	rank       int
	snippet    string
	metadata   map[string]string
}

// New creates a hit as returned by a provider. Rank is not yet assigned;
// the fusion engine assigns it from the list position via WithRank.
func New(
	documentID string, rawScore float64, src source.Source,
	snippet string, metadata map[string]string,
) Hit {
	return Hit{
		documentID: documentID,
		rawScore:   rawScore,
		src:        src,
		snippet:    snippet,
		metadata:   metadata,
	}
}

// WithRank returns a copy of the hit with its 1-based position within
// the provider's own result list.
func (h Hit) WithRank(rank int) Hit {
	h.rank = rank
	return h
}

// DocumentID returns the source document identifier. For semantic hits
// this is the parent document of the matched chunk, not the chunk itself.
func (h *Hit) DocumentID() string { return h.documentID }

// RawScore returns the provider-native relevance score.
func (h *Hit) RawScore() float64 { return h.rawScore }

// Source returns which backend produced the hit.
func (h *Hit) Source() source.Source { return h.src }

// Rank returns the 1-based position within the provider's result list,
// or 0 if the hit has not passed through the fusion engine yet.
func (h *Hit) Rank() int { return h.rank }

// Snippet returns a short display excerpt, possibly empty.
func (h *Hit) Snippet() string { return h.snippet }

// Metadata returns the open key-value map carried through unmodified.
func (h *Hit) Metadata() map[string]string { return h.metadata }
