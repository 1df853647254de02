package domain

import (
	"errors"
	"fmt"

	"github.com/scriptorium/folio/internal/domain/search/source"
)

var (
	// ErrAllProvidersFailed signals that every enabled search backend failed.
	ErrAllProvidersFailed = errors.New("all search providers failed")
	// ErrProviderUnavailable signals a single backend failure or timeout.
	ErrProviderUnavailable = errors.New("search provider unavailable")
	// ErrSourceNotConfigured signals a requested backend with no adapter wired.
	ErrSourceNotConfigured = errors.New("search source not configured")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ProviderError wraps ErrProviderUnavailable with the backend that failed.
type ProviderError struct {
	Source source.Source
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Source, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause, so
// errors.Is can match either (e.g. context.DeadlineExceeded on a
// timed-out backend call).
func (e *ProviderError) Unwrap() []error { return []error{ErrProviderUnavailable, e.Err} }

// NewProviderError creates a provider failure error.
func NewProviderError(s source.Source, err error) error {
	return &ProviderError{Source: s, Err: err}
}
