// Package audit persists a one-row-per-document trail to Postgres when
// --postgres-dsn is set, implementing the orchestrator.AuditSink interface.
// Failures are logged and swallowed: the audit trail is diagnostic, not
// load-bearing, so it must never fail an otherwise-successful extraction run.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	"github.com/adverant/legalextract/internal/errors"
	"github.com/adverant/legalextract/internal/model"
)

// Sink writes one extraction_results row per processed document.
type Sink struct {
	db *sql.DB
}

// NewSink opens dsn, verifies connectivity, and ensures the target table
// exists.
func NewSink(dsn string) (*Sink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.New(errors.ConfigError, "failed to open audit database", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.New(errors.ConfigError, "failed to ping audit database", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}

	return &Sink{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS extraction_results (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			ok BOOLEAN NOT NULL,
			pages INTEGER NOT NULL,
			error_message TEXT,
			merged JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return errors.New(errors.ConfigError, "failed to create extraction_results table", err)
	}
	return nil
}

// Record inserts one row for result. It is safe for concurrent use.
func (s *Sink) Record(result model.DocResult) error {
	var mergedJSON []byte
	if result.Merged != nil {
		data, err := json.Marshal(result.Merged)
		if err != nil {
			return errors.New(errors.IOError, "failed to marshal merged record for audit", err)
		}
		mergedJSON = data
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const query = `
		INSERT INTO extraction_results (source, doc_type, ok, pages, error_message, merged)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		result.InputPath, result.DocType, result.OK, result.Pages, result.Error, mergedJSON)
	if err != nil {
		return errors.New(errors.IOError, "failed to insert audit row", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
