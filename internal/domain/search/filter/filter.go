package filter

import "time"

// Filter narrows provider result sets before fusion. All conditions are
// optional and combined with AND; providers interpret them against their
// own schema (the core passes the filter through unmodified).
type Filter struct {
	sourceType     string
	language       string
	dateFrom       time.Time
	dateTo         time.Time
	minCredibility float64
}

// New creates a filter. Zero values mean "no constraint".
func New(
	sourceType, language string,
	dateFrom, dateTo time.Time,
	minCredibility float64,
) Filter {
	return Filter{
		sourceType:     sourceType,
		language:       language,
		dateFrom:       dateFrom,
		dateTo:         dateTo,
		minCredibility: minCredibility,
	}
}

// SourceType returns the document source type constraint ("" = any).
func (f Filter) SourceType() string { return f.sourceType }

// Language returns the document language constraint ("" = any).
func (f Filter) Language() string { return f.language }

// DateFrom returns the lower creation date bound (zero = unbounded).
func (f Filter) DateFrom() time.Time { return f.dateFrom }

// DateTo returns the upper creation date bound (zero = unbounded).
func (f Filter) DateTo() time.Time { return f.dateTo }

// MinCredibility returns the minimum credibility score (0 = any).
func (f Filter) MinCredibility() float64 { return f.minCredibility }

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool {
	return f.sourceType == "" && f.language == "" &&
		f.dateFrom.IsZero() && f.dateTo.IsZero() && f.minCredibility == 0
}
