package request

import (
	"strings"
	"testing"

	"github.com/scriptorium/folio/internal/domain/search/filter"
	"github.com/scriptorium/folio/internal/domain/search/fusion"
	"github.com/scriptorium/folio/internal/domain/search/source"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("ashoka edicts", nil, fusion.DefaultConfig(), filter.Filter{}, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Query() != "ashoka edicts" {
		t.Errorf("Query() = %q", r.Query())
	}
	if len(r.Sources()) != 2 {
		t.Fatalf("Sources() = %v, want both backends", r.Sources())
	}
	if !r.HasSource(source.Lexical) || !r.HasSource(source.Semantic) {
		t.Errorf("Sources() = %v", r.Sources())
	}
	if r.IncludeFacets() {
		t.Error("IncludeFacets() = true, want false")
	}
}

func TestNew_Validation(t *testing.T) {
	cfg := fusion.DefaultConfig()

	if _, err := New("", nil, cfg, filter.Filter{}, false); err == nil {
		t.Error("empty query: expected error")
	}

	long := strings.Repeat("x", MaxQueryLength+1)
	if _, err := New(long, nil, cfg, filter.Filter{}, false); err == nil {
		t.Error("oversized query: expected error")
	}

	if _, err := New("q", []source.Source{"grep"}, cfg, filter.Filter{}, false); err == nil {
		t.Error("invalid source: expected error")
	}
}

func TestNew_DedupesSources(t *testing.T) {
	r, err := New("q", []source.Source{source.Semantic, source.Semantic, source.Lexical},
		fusion.DefaultConfig(), filter.Filter{}, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(r.Sources()) != 2 {
		t.Fatalf("Sources() = %v, want deduped pair", r.Sources())
	}
	if r.Sources()[0] != source.Semantic {
		t.Errorf("order not preserved: %v", r.Sources())
	}
}

func TestFusion_AccessorsOnReturnedValue(t *testing.T) {
	cfg, err := fusion.NewConfig(fusion.Weighted, 0.7, 0.3, 0, 10, 2)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	r, err := New("q", nil, cfg, filter.Filter{}, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Accessors must work on the bare return value, without binding it
	// to an addressable local first.
	if got := r.Fusion().CandidateLimit(); got != 20 {
		t.Errorf("CandidateLimit() = %d, want 20", got)
	}
	if got := r.Fusion().Weight(source.Semantic); got != 0.7 {
		t.Errorf("Weight(semantic) = %g, want 0.7", got)
	}
	if got := r.Fusion().Method(); got != fusion.Weighted {
		t.Errorf("Method() = %q, want weighted", got)
	}
}
