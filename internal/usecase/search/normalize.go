package search

// Normalize rescales one provider's raw scores onto [0,1] with linear
// min-max over the current result set. When every score is identical
// (including the single-result case) each output is exactly 0.5, which
// avoids division by zero without biasing a uniform set toward either
// end. Input order is preserved.
//
// Normalization is local to one search call: the output is only
// meaningful relative to the other scores of the same request and must
// never be persisted or compared across calls.
func Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	out := make([]float64, len(scores))
	if hi == lo {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}

	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}
