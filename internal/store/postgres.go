// Package store persists canonical jobs, search criteria and match results.
// Postgres is the production backend; Memory backs tests and dry runs.
// Consumers (ingest, match) declare the interfaces they need — both backends
// satisfy them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobscout/internal/model"
)

// Postgres implements the storage operations on a pgxpool connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const jobColumns = `id, title, company, description, location, salary_text,
	salary_annual_min, salary_annual_max, url, source, fingerprint,
	first_seen, last_seen, active`

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var description, location, salaryText, fp *string
	err := row.Scan(
		&j.ID, &j.Title, &j.Company, &description, &location, &salaryText,
		&j.SalaryAnnualMin, &j.SalaryAnnualMax, &j.URL, &j.Source, &fp,
		&j.FirstSeen, &j.LastSeen, &j.Active,
	)
	if err != nil {
		return nil, err
	}
	if description != nil {
		j.Description = *description
	}
	if location != nil {
		j.Location = *location
	}
	if salaryText != nil {
		j.SalaryText = *salaryText
	}
	if fp != nil {
		j.Fingerprint = *fp
	}
	return &j, nil
}

// FindJobByURL returns the job with the exact URL, or nil when absent.
func (p *Postgres) FindJobByURL(ctx context.Context, url string) (*model.Job, error) {
	j, err := scanJob(p.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE url = $1`, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job by url: %w", err)
	}
	return j, nil
}

// FindJobByFingerprint returns the first job carrying the fingerprint, or
// nil when absent.
func (p *Postgres) FindJobByFingerprint(ctx context.Context, fp string) (*model.Job, error) {
	j, err := scanJob(p.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE fingerprint = $1 ORDER BY id LIMIT 1`, fp))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job by fingerprint: %w", err)
	}
	return j, nil
}

// InsertJob inserts a new job row. Returns false when a concurrent insert
// already claimed the URL or fingerprint — the caller falls back to the
// duplicate path instead of failing the batch.
func (p *Postgres) InsertJob(ctx context.Context, job *model.Job) (bool, error) {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO jobs (title, company, description, location, salary_text,
		                   salary_annual_min, salary_annual_max, url, source,
		                   fingerprint, first_seen, last_seen, active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,true)
		 ON CONFLICT DO NOTHING
		 RETURNING id`,
		job.Title, job.Company, nullable(job.Description), nullable(job.Location),
		nullable(job.SalaryText), job.SalaryAnnualMin, job.SalaryAnnualMax,
		job.URL, job.Source, nullable(job.Fingerprint),
		job.FirstSeen, job.LastSeen,
	).Scan(&job.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}
	job.Active = true
	return true, nil
}

// RefreshJobSeen bumps last_seen and reactivates the job.
func (p *Postgres) RefreshJobSeen(ctx context.Context, id int64, seenAt time.Time) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE jobs SET last_seen = $2, active = true WHERE id = $1`, id, seenAt)
	if err != nil {
		return fmt.Errorf("refresh job seen: %w", err)
	}
	return nil
}

// MarkStale deactivates active jobs last seen before cutoff, in one bulk
// statement. A non-empty source restricts the sweep to that source. Returns
// the number of rows flipped.
func (p *Postgres) MarkStale(ctx context.Context, cutoff time.Time, source string) (int64, error) {
	query := `UPDATE jobs SET active = false WHERE active = true AND last_seen < $1`
	args := []any{cutoff}
	if source != "" {
		query += ` AND source = $2`
		args = append(args, source)
	}
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark stale: %w", err)
	}
	return tag.RowsAffected(), nil
}

// JobsMissingFingerprint lists jobs whose fingerprint was never computed.
func (p *Postgres) JobsMissingFingerprint(ctx context.Context) ([]model.Job, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE fingerprint IS NULL OR fingerprint = ''`)
	if err != nil {
		return nil, fmt.Errorf("jobs missing fingerprint: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// SetJobFingerprint persists a backfilled fingerprint.
func (p *Postgres) SetJobFingerprint(ctx context.Context, id int64, fp string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE jobs SET fingerprint = $2 WHERE id = $1`, id, fp)
	if err != nil {
		return fmt.Errorf("set job fingerprint: %w", err)
	}
	return nil
}

// ListJobs returns every stored job.
func (p *Postgres) ListJobs(ctx context.Context) ([]model.Job, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// JobStats aggregates active/inactive counts, overall and per source.
func (p *Postgres) JobStats(ctx context.Context) (*model.JobStats, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT source, active, COUNT(*) FROM jobs GROUP BY source, active`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := &model.JobStats{BySource: map[string]model.SourceStats{}}
	for rows.Next() {
		var source string
		var active bool
		var count int
		if err := rows.Scan(&source, &active, &count); err != nil {
			return nil, fmt.Errorf("job stats scan: %w", err)
		}
		s := stats.BySource[source]
		if active {
			s.Active += count
			stats.Active += count
		} else {
			s.Inactive += count
			stats.Inactive += count
		}
		stats.BySource[source] = s
		stats.Total += count
	}
	return stats, rows.Err()
}

// LatestCriteria returns the owner's most recently updated criteria, or nil
// when the owner has none.
func (p *Postgres) LatestCriteria(ctx context.Context, ownerID int64) (*model.SearchCriteria, error) {
	var c model.SearchCriteria
	err := p.pool.QueryRow(ctx,
		`SELECT id, owner_id, keywords, locations, salary_min, salary_max,
		        remote_preference, red_flags, updated_at
		 FROM search_criteria WHERE owner_id = $1
		 ORDER BY updated_at DESC LIMIT 1`, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Keywords, &c.Locations, &c.SalaryMin,
		&c.SalaryMax, &c.RemotePreference, &c.RedFlags, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest criteria: %w", err)
	}
	return &c, nil
}

// FindMatch returns the persisted match for (owner, job), or nil.
func (p *Postgres) FindMatch(ctx context.Context, ownerID, jobID int64) (*model.MatchResult, error) {
	var m model.MatchResult
	var breakdown []byte
	err := p.pool.QueryRow(ctx,
		`SELECT owner_id, job_id, score, breakdown, computed_at
		 FROM matched_jobs WHERE owner_id = $1 AND job_id = $2`,
		ownerID, jobID,
	).Scan(&m.OwnerID, &m.JobID, &m.Score, &breakdown, &m.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &m.Breakdown); err != nil {
			return nil, fmt.Errorf("decode match breakdown: %w", err)
		}
	}
	return &m, nil
}

// UpsertMatch inserts or score-updates the (owner, job) match row. Returns
// true when a new row was created.
func (p *Postgres) UpsertMatch(ctx context.Context, m *model.MatchResult) (bool, error) {
	breakdown, err := json.Marshal(m.Breakdown)
	if err != nil {
		return false, fmt.Errorf("encode match breakdown: %w", err)
	}

	var created bool
	err = p.pool.QueryRow(ctx,
		`INSERT INTO matched_jobs (owner_id, job_id, score, breakdown, computed_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (owner_id, job_id)
		 DO UPDATE SET score = EXCLUDED.score,
		               breakdown = EXCLUDED.breakdown,
		               computed_at = EXCLUDED.computed_at
		 RETURNING (xmax = 0)`,
		m.OwnerID, m.JobID, m.Score, breakdown, m.ComputedAt,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert match: %w", err)
	}
	return created, nil
}

func collectJobs(rows pgx.Rows) ([]model.Job, error) {
	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
