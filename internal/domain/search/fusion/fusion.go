package fusion

import (
	"fmt"

	"github.com/scriptorium/folio/internal/domain/search/source"
)

// Method selects the rank fusion algorithm.
type Method string

// Fusion method constants.
const (
	// Weighted sums min-max-normalized scores scaled by per-source weights.
	Weighted Method = "weighted"
	// ReciprocalRank sums 1/(k + rank) contributions, ignoring raw scores.
	ReciprocalRank Method = "rrf"
)

// IsValid checks if the method is one of the supported values.
func (m Method) IsValid() bool {
	return m == Weighted || m == ReciprocalRank
}

// Defaults and limits for fusion parameters.
const (
	// DefaultRRFK is the standard RRF constant (Cormack et al. 2009).
	// Larger k flattens the influence of top ranks.
	DefaultRRFK = 60

	DefaultSemanticWeight = 0.5
	DefaultLexicalWeight  = 0.5

	DefaultLimit = 10
	MaxLimit     = 100

	// DefaultCandidateMultiplier controls how many candidates are requested
	// per provider relative to the result limit. Fusing two already-truncated
	// lists loses recall, so providers are over-fetched and the fused list
	// is truncated afterwards.
	DefaultCandidateMultiplier = 2
	MaxCandidateMultiplier     = 10
)

// Config is an immutable per-search fusion configuration.
type Config struct {
	method              Method
	semanticWeight      float64
	lexicalWeight       float64
	rrfK                int
	limit               int
	candidateMultiplier int
}

// NewConfig validates and normalizes fusion parameters.
// Defaults: method=weighted, weights 0.5/0.5, rrf_k=60, limit=10,
// candidate multiplier 2. Weight validation applies only to the
// weighted method; negative or zero-sum weights are rejected here,
// before any provider call is made.
func NewConfig(
	m Method, semanticWeight, lexicalWeight float64,
	rrfK, limit, candidateMultiplier int,
) (Config, error) {
	if m == "" {
		m = Weighted
	}
	if !m.IsValid() {
		return Config{}, fmt.Errorf("unknown fusion method: %q", m)
	}
	if semanticWeight < 0 || lexicalWeight < 0 {
		return Config{}, fmt.Errorf(
			"fusion weights must not be negative (semantic=%g, lexical=%g)",
			semanticWeight, lexicalWeight,
		)
	}
	if semanticWeight == 0 && lexicalWeight == 0 {
		semanticWeight = DefaultSemanticWeight
		lexicalWeight = DefaultLexicalWeight
	}
	if rrfK < 0 {
		return Config{}, fmt.Errorf("rrf_k must not be negative, got %d", rrfK)
	}
	if rrfK == 0 {
		rrfK = DefaultRRFK
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if candidateMultiplier <= 0 {
		candidateMultiplier = DefaultCandidateMultiplier
	}
	if candidateMultiplier > MaxCandidateMultiplier {
		candidateMultiplier = MaxCandidateMultiplier
	}

	return Config{
		method:              m,
		semanticWeight:      semanticWeight,
		lexicalWeight:       lexicalWeight,
		rrfK:                rrfK,
		limit:               limit,
		candidateMultiplier: candidateMultiplier,
	}, nil
}

// DefaultConfig returns the default weighted fusion configuration.
func DefaultConfig() Config {
	cfg, err := NewConfig(Weighted, 0, 0, 0, 0, 0)
	if err != nil {
		panic(err) // defaults are always valid
	}
	return cfg
}

// Method returns the fusion algorithm.
func (c Config) Method() Method { return c.method }

// SemanticWeight returns the semantic score weight (weighted method only).
func (c Config) SemanticWeight() float64 { return c.semanticWeight }

// LexicalWeight returns the lexical score weight (weighted method only).
func (c Config) LexicalWeight() float64 { return c.lexicalWeight }

// Weight returns the configured weight for the given source.
func (c Config) Weight(s source.Source) float64 {
	switch s {
	case source.Semantic:
		return c.semanticWeight
	case source.Lexical:
		return c.lexicalWeight
	default:
		return 0
	}
}

// RRFK returns the reciprocal rank fusion constant.
func (c Config) RRFK() int { return c.rrfK }

// Limit returns the maximum number of fused results to return.
func (c Config) Limit() int { return c.limit }

// CandidateLimit returns how many candidates to request from each provider.
func (c Config) CandidateLimit() int { return c.limit * c.candidateMultiplier }
