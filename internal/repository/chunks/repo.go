// Package chunks is the semantic search adapter. Documents are split
// into embedded passages (chunks) stored as Redis hashes under an FT
// index; a search embeds the query text and runs a filtered KNN over
// the chunk vectors.
package chunks

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scriptorium/folio/internal/db"
	"github.com/scriptorium/folio/internal/domain"
	"github.com/scriptorium/folio/internal/domain/search/filter"
	"github.com/scriptorium/folio/internal/domain/search/hit"
	"github.com/scriptorium/folio/internal/domain/search/source"
)

// snippetRunes caps the chunk text carried back as a result snippet.
const snippetRunes = 240

// Hash field names of a stored chunk. Tag and numeric fields are
// indexed for KNN pre-filtering; text carries the raw passage.
const (
	fieldDocumentID  = "document_id"
	fieldText        = "text"
	fieldSourceType  = "source_type"
	fieldLanguage    = "language"
	fieldDynasty     = "dynasty"
	fieldCredibility = "credibility"
	fieldDate        = "date"
	fieldEmbedding   = "embedding"
)

// store is the consumer interface for chunk operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
}

// Chunk is one embedded passage of a document.
type Chunk struct {
	ID          string
	DocumentID  uuid.UUID
	Text        string
	SourceType  string
	Language    string
	Dynasty     string
	Credibility float64
	Date        time.Time
	Embedding   []float32
}

// Repo implements usecase/search.SemanticProvider over a chunk index.
type Repo struct {
	store     store
	embedder  domain.Embedder
	indexName string
	keyPrefix string
	logger    *zap.Logger
}

// New creates a chunk repository. keyPrefix namespaces chunk hashes
// (e.g. "folio:" → keys "folio:chunk:<id>").
func New(s store, embedder domain.Embedder, indexName, keyPrefix string, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{
		store:     s,
		embedder:  embedder,
		indexName: indexName,
		keyPrefix: keyPrefix + "chunk:",
		logger:    logger,
	}
}

// Search embeds the query text and returns the limit nearest chunks as
// hits in descending similarity order. Scores are cosine similarity in
// [0,1]. Several chunks of the same document may appear; callers
// deduplicate per document downstream.
func (r *Repo) Search(
	ctx context.Context, query string, limit int, f filter.Filter,
) ([]hit.Hit, error) {
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q := &db.KNNQuery{
		IndexName: r.indexName,
		Filter:    buildFilterSpec(f),
		Vector:    emb.Embedding,
		K:         limit,
		ReturnFields: []string{
			fieldDocumentID, fieldText,
			fieldSourceType, fieldLanguage, fieldDynasty,
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	hits := make([]hit.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, entryToHit(entry))
	}
	return hits, nil
}

// EnsureIndex creates the chunk FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, dimensions int) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check chunk index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName,
		Prefixes: []string{r.keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldDocumentID, Type: db.IndexFieldTag},
			{Name: fieldSourceType, Type: db.IndexFieldTag},
			{Name: fieldLanguage, Type: db.IndexFieldTag},
			{Name: fieldDynasty, Type: db.IndexFieldTag},
			{Name: fieldCredibility, Type: db.IndexFieldNumeric},
			{Name: fieldDate, Type: db.IndexFieldNumeric},
			{Name: fieldText, Type: db.IndexFieldText},
			{
				Name:              fieldEmbedding,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           32,
				VectorEFConstruct: 400,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create chunk index: %w", err)
	}
	r.logger.Info("chunk index created",
		zap.String("index", r.indexName),
		zap.Int("dimensions", dimensions),
	)
	return nil
}

// Upsert stores chunks as indexed hashes in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, cs []Chunk) error {
	if len(cs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		if c.ID == "" || len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %q: id and embedding are required", c.ID)
		}
		items = append(items, db.HashSetItem{
			Key:    r.keyPrefix + c.ID,
			Fields: chunkFields(c),
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

func chunkFields(c *Chunk) map[string]string {
	fields := map[string]string{
		fieldDocumentID: c.DocumentID.String(),
		fieldText:       c.Text,
		fieldEmbedding:  vectorToBytes(c.Embedding),
	}
	if c.SourceType != "" {
		fields[fieldSourceType] = c.SourceType
	}
	if c.Language != "" {
		fields[fieldLanguage] = c.Language
	}
	if c.Dynasty != "" {
		fields[fieldDynasty] = c.Dynasty
	}
	if c.Credibility > 0 {
		fields[fieldCredibility] = strconv.FormatFloat(c.Credibility, 'f', -1, 64)
	}
	if !c.Date.IsZero() {
		fields[fieldDate] = strconv.FormatInt(c.Date.Unix(), 10)
	}
	return fields
}

// buildFilterSpec maps the domain filter onto chunk index fields.
func buildFilterSpec(f filter.Filter) db.FilterSpec {
	var spec db.FilterSpec

	if v := f.SourceType(); v != "" {
		spec.Tags = append(spec.Tags, db.TagFilter{Field: fieldSourceType, Value: v})
	}
	if v := f.Language(); v != "" {
		spec.Tags = append(spec.Tags, db.TagFilter{Field: fieldLanguage, Value: v})
	}

	if !f.DateFrom().IsZero() || !f.DateTo().IsZero() {
		r := db.RangeFilter{Field: fieldDate}
		if from := f.DateFrom(); !from.IsZero() {
			v := float64(from.Unix())
			r.Min = &v
		}
		if to := f.DateTo(); !to.IsZero() {
			v := float64(to.Unix())
			r.Max = &v
		}
		spec.Ranges = append(spec.Ranges, r)
	}

	if v := f.MinCredibility(); v > 0 {
		spec.Ranges = append(spec.Ranges, db.RangeFilter{Field: fieldCredibility, Min: &v})
	}

	return spec
}

func entryToHit(entry db.SearchEntry) hit.Hit {
	metadata := make(map[string]string, 3)
	for _, field := range []string{fieldSourceType, fieldLanguage, fieldDynasty} {
		if v := entry.Fields[field]; v != "" {
			metadata[field] = v
		}
	}

	return hit.New(
		entry.Fields[fieldDocumentID],
		entry.Score,
		source.Semantic,
		snippetFrom(entry.Fields[fieldText]),
		metadata,
	)
}

// snippetFrom truncates chunk text at a rune boundary.
func snippetFrom(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return string(runes[:snippetRunes]) + "…"
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
