// Package postgres is the lexical search adapter. Documents carry a
// weighted tsvector column; searches run translated tsquery strings
// against it with ts_rank relevance and ts_headline snippets.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// database/sql driver
	_ "github.com/lib/pq"
)

// Config holds connection settings for the document database.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// NewDB opens and verifies a connection pool.
func NewDB(cfg Config) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
