// Command folio runs a hybrid search query against the configured
// PostgreSQL and Redis backends and prints the fused results as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scriptorium/folio/internal/config"
	dbRedis "github.com/scriptorium/folio/internal/db/redis"
	"github.com/scriptorium/folio/internal/domain"
	"github.com/scriptorium/folio/internal/domain/search/filter"
	"github.com/scriptorium/folio/internal/domain/search/fusion"
	"github.com/scriptorium/folio/internal/domain/search/request"
	"github.com/scriptorium/folio/internal/domain/search/source"
	logpkg "github.com/scriptorium/folio/internal/logger"
	"github.com/scriptorium/folio/internal/metrics"
	"github.com/scriptorium/folio/internal/repository/chunks"
	"github.com/scriptorium/folio/internal/repository/embcache"
	"github.com/scriptorium/folio/internal/repository/postgres"
	openaiEmb "github.com/scriptorium/folio/internal/transport/openai"
	searchuc "github.com/scriptorium/folio/internal/usecase/search"
	"github.com/scriptorium/folio/internal/version"
)

type resultOut struct {
	DocumentID      string             `json:"document_id"`
	Score           float64            `json:"score"`
	Sources         []source.Source    `json:"sources"`
	ComponentScores map[string]float64 `json:"component_scores,omitempty"`
	Snippet         string             `json:"snippet,omitempty"`
	Metadata        map[string]string  `json:"metadata,omitempty"`
}

type facetOut struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type responseOut struct {
	Query         string                `json:"query"`
	Method        fusion.Method         `json:"method"`
	Sources       []source.Source       `json:"sources"`
	Total         int                   `json:"total"`
	ElapsedMs     int64                 `json:"elapsed_ms"`
	Degraded      bool                  `json:"degraded,omitempty"`
	FailedSources []source.Source       `json:"failed_sources,omitempty"`
	Results       []resultOut           `json:"results"`
	Facets        map[string][]facetOut `json:"facets,omitempty"`
}

func main() {
	var (
		sourcesFlag = flag.String("sources", "", "comma-separated backends (lexical,semantic); empty = all")
		methodFlag  = flag.String("method", "", "fusion method (weighted or rrf); empty = configured default")
		limitFlag   = flag.Int("limit", 0, "max results; 0 = configured default")
		facetsFlag  = flag.Bool("facets", false, "include facet counts")
		sourceType  = flag.String("source-type", "", "filter: document source type")
		langFlag    = flag.String("language", "", "filter: document language")
		minCred     = flag.Float64("min-credibility", 0, "filter: minimum credibility score")
		fromFlag    = flag.String("from", "", "filter: earliest date (YYYY-MM-DD)")
		toFlag      = flag.String("to", "", "filter: latest date (YYYY-MM-DD)")
		ensureIdx   = flag.Bool("ensure-index", false, "create backend indexes if missing, then exit")
	)
	flag.Parse()

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting folio",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)

	ctx := logpkg.ContextWithLogger(context.Background(), logger)

	db, err := postgres.NewDB(postgres.Config{
		DSN:          cfg.Postgres.DSN,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Postgres.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create Redis store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}
	logger.Info("Connected to Redis", zap.Strings("addrs", cfg.Redis.Addrs))

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterEmbeddingMetrics()

	embedder := buildEmbedder(&cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	lexical := postgres.New(db, cfg.Search.Language, logger)
	semantic := chunks.New(store, embedder, cfg.Redis.ChunkIdx, cfg.Redis.KeyPrefix, logger)

	if *ensureIdx {
		if err := lexical.EnsureIndexes(ctx); err != nil {
			logger.Fatal("Failed to create PostgreSQL index", zap.Error(err))
		}
		if err := semantic.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
			logger.Fatal("Failed to create Redis index", zap.Error(err))
		}
		logger.Info("Indexes ready")
		return
	}

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: folio [flags] <query>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	svc := searchuc.New(lexical, semantic, searchuc.NewTranslator(cfg.Search.Language), logger).
		WithProviderTimeout(time.Duration(cfg.Search.ProviderTimeoutSec) * time.Second).
		WithFacetFields(cfg.Search.FacetFields)

	req, err := buildRequest(&cfg, query, *sourcesFlag, *methodFlag, *limitFlag, *facetsFlag,
		*sourceType, *langFlag, *fromFlag, *toFlag, *minCred)
	if err != nil {
		logger.Fatal("Invalid request", zap.Error(err))
	}

	resp, err := svc.Search(ctx, &req)
	if err != nil {
		logger.Fatal("Search failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toOutput(resp)); err != nil {
		logger.Fatal("Failed to encode response", zap.Error(err))
	}
}

// buildEmbedder composes the query embedder chain:
// openai transport -> optional instruction decorator -> Redis cache.
func buildEmbedder(cfg *config.Config, store *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	var embedder domain.Embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	if cfg.Embedding.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}
	return embcache.New(
		embedder, store,
		cfg.Redis.KeyPrefix, cfg.Embedding.Model,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
}

func buildRequest(
	cfg *config.Config, query, sourcesCSV, method string,
	limit int, facets bool,
	sourceType, language, from, to string, minCred float64,
) (request.Request, error) {
	var sources []source.Source
	if sourcesCSV != "" {
		for _, s := range strings.Split(sourcesCSV, ",") {
			sources = append(sources, source.Source(strings.TrimSpace(s)))
		}
	}

	m := fusion.Method(method)
	if method == "" {
		m = fusion.Method(cfg.Search.FusionMethod)
	}
	if limit == 0 {
		limit = cfg.Search.DefaultLimit
	}
	fusionCfg, err := fusion.NewConfig(
		m, cfg.Search.SemanticWeight, cfg.Search.LexicalWeight,
		cfg.Search.RRFK, limit, cfg.Search.CandidateMultiplier,
	)
	if err != nil {
		return request.Request{}, err
	}

	var dateFrom, dateTo time.Time
	if from != "" {
		if dateFrom, err = time.Parse("2006-01-02", from); err != nil {
			return request.Request{}, fmt.Errorf("invalid -from date: %w", err)
		}
	}
	if to != "" {
		if dateTo, err = time.Parse("2006-01-02", to); err != nil {
			return request.Request{}, fmt.Errorf("invalid -to date: %w", err)
		}
	}
	f := filter.New(sourceType, language, dateFrom, dateTo, minCred)

	return request.New(query, sources, fusionCfg, f, facets)
}

func toOutput(resp *searchuc.Response) responseOut {
	out := responseOut{
		Query:         resp.Query,
		Method:        resp.Method,
		Sources:       resp.Sources,
		Total:         resp.Total,
		ElapsedMs:     resp.Elapsed.Milliseconds(),
		Degraded:      resp.Degraded,
		FailedSources: resp.FailedSources,
		Results:       make([]resultOut, 0, len(resp.Results)),
	}
	if len(resp.Facets) > 0 {
		out.Facets = make(map[string][]facetOut, len(resp.Facets))
		for field, counts := range resp.Facets {
			for _, fc := range counts {
				out.Facets[field] = append(out.Facets[field], facetOut{Value: fc.Value, Count: fc.Count})
			}
		}
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		components := make(map[string]float64, len(r.ComponentScores()))
		for src, score := range r.ComponentScores() {
			components[string(src)] = score
		}
		out.Results = append(out.Results, resultOut{
			DocumentID:      r.DocumentID(),
			Score:           r.FinalScore(),
			Sources:         r.Sources(),
			ComponentScores: components,
			Snippet:         r.Snippet(),
			Metadata:        r.Metadata(),
		})
	}
	return out
}
