// Package db provides database connection helpers.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the tables and indexes the pipeline writes to. Safe to
// run on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id                BIGSERIAL PRIMARY KEY,
			title             TEXT NOT NULL,
			company           TEXT NOT NULL,
			description       TEXT,
			location          TEXT,
			salary_text       TEXT,
			salary_annual_min INTEGER,
			salary_annual_max INTEGER,
			url               TEXT NOT NULL UNIQUE,
			source            TEXT NOT NULL,
			fingerprint       TEXT,
			first_seen        TIMESTAMPTZ NOT NULL,
			last_seen         TIMESTAMPTZ NOT NULL,
			active            BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS jobs_fingerprint_idx
			ON jobs (fingerprint) WHERE fingerprint IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS jobs_source_active_idx ON jobs (source, active)`,
		`CREATE TABLE IF NOT EXISTS search_criteria (
			id                BIGSERIAL PRIMARY KEY,
			owner_id          BIGINT NOT NULL,
			keywords          TEXT[] NOT NULL DEFAULT '{}',
			locations         TEXT[] NOT NULL DEFAULT '{}',
			salary_min        INTEGER,
			salary_max        INTEGER,
			remote_preference BOOLEAN,
			red_flags         TEXT[] NOT NULL DEFAULT '{}',
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS search_criteria_owner_idx
			ON search_criteria (owner_id, updated_at DESC)`,
		`CREATE TABLE IF NOT EXISTS matched_jobs (
			owner_id    BIGINT NOT NULL,
			job_id      BIGINT NOT NULL REFERENCES jobs (id) ON DELETE CASCADE,
			score       INTEGER NOT NULL,
			breakdown   JSONB,
			computed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (owner_id, job_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
