package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scriptorium/folio/internal/domain/search/filter"
	"github.com/scriptorium/folio/internal/domain/search/hit"
	"github.com/scriptorium/folio/internal/domain/search/source"
)

// RankBy selects the result ordering of a lexical search.
type RankBy string

// Orderings. Relevance is the default; date and credibility still
// compute ts_rank so the fusion engine sees comparable raw scores.
const (
	RankByRelevance   RankBy = "relevance"
	RankByDate        RankBy = "date"
	RankByCredibility RankBy = "credibility"
)

const headlineOpts = "StartSel=<mark>, StopSel=</mark>, MaxWords=40, MinWords=10"

// Repo implements usecase/search.LexicalProvider over a documents
// table with a precomputed search_vector column.
type Repo struct {
	db       *sql.DB
	language string
	rankBy   RankBy
	logger   *zap.Logger
}

// New creates a lexical search repository. language names the text
// search configuration used for both queries and vector maintenance.
func New(db *sql.DB, language string, logger *zap.Logger) *Repo {
	if language == "" {
		language = "english"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{db: db, language: language, rankBy: RankByRelevance, logger: logger}
}

// WithRankBy overrides the result ordering.
func (r *Repo) WithRankBy(rb RankBy) *Repo {
	switch rb {
	case RankByRelevance, RankByDate, RankByCredibility:
		r.rankBy = rb
	}
	return r
}

// Search runs the translated tsquery and returns up to limit hits in
// rank order. An empty tsquery (a query with no indexable terms)
// matches nothing and is not an error.
func (r *Repo) Search(
	ctx context.Context, tsquery string, limit int, f filter.Filter,
) ([]hit.Hit, error) {
	if strings.TrimSpace(tsquery) == "" {
		return nil, nil
	}

	query, args := buildSearchQuery(r.language, tsquery, limit, f, r.rankBy)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var hits []hit.Hit
	for rows.Next() {
		h, err := scanHit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}

	return hits, nil
}

// UpdateSearchVector recomputes the weighted tsvector of one document.
// Field weights: title=A, summary=B, text=C, author=D.
func (r *Repo) UpdateSearchVector(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, updateVectorSQL, r.language, id)
	if err != nil {
		return fmt.Errorf("update search vector %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update search vector %s: document not found", id)
	}
	return nil
}

// UpdateAllSearchVectors recomputes vectors for every document,
// returning the number of rows touched. Used after bulk imports.
func (r *Repo) UpdateAllSearchVectors(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, updateAllVectorsSQL, r.language)
	if err != nil {
		return 0, fmt.Errorf("update all search vectors: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update all search vectors: %w", err)
	}
	r.logger.Info("search vectors rebuilt", zap.Int64("documents", n))
	return n, nil
}

// EnsureIndexes creates the GIN index backing tsquery search.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("ensure search index: %w", err)
	}
	return nil
}

const updateVectorSQL = `
UPDATE documents SET search_vector =
    setweight(to_tsvector($1::regconfig, coalesce(title, '')), 'A') ||
    setweight(to_tsvector($1::regconfig, coalesce(summary, '')), 'B') ||
    setweight(to_tsvector($1::regconfig, coalesce(text, '')), 'C') ||
    setweight(to_tsvector($1::regconfig, coalesce(author, '')), 'D')
WHERE id = $2`

const updateAllVectorsSQL = `
UPDATE documents SET search_vector =
    setweight(to_tsvector($1::regconfig, coalesce(title, '')), 'A') ||
    setweight(to_tsvector($1::regconfig, coalesce(summary, '')), 'B') ||
    setweight(to_tsvector($1::regconfig, coalesce(text, '')), 'C') ||
    setweight(to_tsvector($1::regconfig, coalesce(author, '')), 'D')`

const createIndexSQL = `
CREATE INDEX IF NOT EXISTS documents_search_vector_idx
    ON documents USING GIN (search_vector)`

// buildSearchQuery assembles the SELECT with positional args. The
// tsquery string comes from the translator, which already stripped
// everything to_tsquery cannot parse.
func buildSearchQuery(
	language, tsquery string, limit int, f filter.Filter, rankBy RankBy,
) (string, []any) {
	var b strings.Builder
	args := []any{language, tsquery}

	b.WriteString(`
SELECT d.id, d.title,
       ts_rank(d.search_vector, query) AS rank,
       ts_headline($1::regconfig, coalesce(d.summary, left(d.text, 600)), query, '` + headlineOpts + `') AS snippet,
       d.source_type, d.language, coalesce(d.dynasty, ''), d.credibility
FROM documents d, to_tsquery($1::regconfig, $2) query
WHERE d.search_vector @@ query`)

	argIdx := 3
	if v := f.SourceType(); v != "" {
		fmt.Fprintf(&b, " AND d.source_type = $%d", argIdx)
		args = append(args, v)
		argIdx++
	}
	if v := f.Language(); v != "" {
		fmt.Fprintf(&b, " AND d.language = $%d", argIdx)
		args = append(args, v)
		argIdx++
	}
	if v := f.DateFrom(); !v.IsZero() {
		fmt.Fprintf(&b, " AND d.created_date >= $%d", argIdx)
		args = append(args, v)
		argIdx++
	}
	if v := f.DateTo(); !v.IsZero() {
		fmt.Fprintf(&b, " AND d.created_date <= $%d", argIdx)
		args = append(args, v)
		argIdx++
	}
	if v := f.MinCredibility(); v > 0 {
		fmt.Fprintf(&b, " AND d.credibility >= $%d", argIdx)
		args = append(args, v)
		argIdx++
	}

	switch rankBy {
	case RankByDate:
		b.WriteString("\nORDER BY d.created_date DESC, rank DESC")
	case RankByCredibility:
		b.WriteString("\nORDER BY d.credibility DESC, rank DESC")
	default:
		b.WriteString("\nORDER BY rank DESC")
	}

	fmt.Fprintf(&b, "\nLIMIT $%d", argIdx)
	args = append(args, limit)

	return b.String(), args
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanHit(row rowScanner) (hit.Hit, error) {
	var (
		id          uuid.UUID
		title       string
		rank        float64
		snippet     sql.NullString
		sourceType  string
		language    string
		dynasty     string
		credibility sql.NullFloat64
	)
	if err := row.Scan(&id, &title, &rank, &snippet, &sourceType, &language, &dynasty, &credibility); err != nil {
		return hit.Hit{}, err
	}

	metadata := map[string]string{
		"title":       title,
		"source_type": sourceType,
		"language":    language,
	}
	if dynasty != "" {
		metadata["dynasty"] = dynasty
	}

	return hit.New(id.String(), rank, source.Lexical, snippet.String, metadata), nil
}
