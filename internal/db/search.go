package db

// TagFilter matches an exact tag field value.
type TagFilter struct {
	Field string
	Value string
}

// RangeFilter bounds a numeric field. A nil bound is open.
type RangeFilter struct {
	Field string
	Min   *float64
	Max   *float64
}

// FilterSpec is a conjunction of tag and range conditions used to
// pre-filter a KNN search. Conditions apply in slice order, which keeps
// the generated query deterministic.
type FilterSpec struct {
	Tags   []TagFilter
	Ranges []RangeFilter
}

// IsEmpty reports whether the spec carries no conditions.
func (f FilterSpec) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Ranges) == 0
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filter       FilterSpec
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit from a search. Score is cosine
// similarity in [0,1], converted from the reported vector distance.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
