// Package ingest decides, for every extracted job, whether it is new or a
// re-observation of a stored posting, and owns the maintenance operations
// built on the same fingerprint machinery: staleness sweeps, fingerprint
// backfill and stats.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"jobscout/internal/fingerprint"
	"jobscout/internal/model"
)

// Store is the storage surface the deduplicator needs. Satisfied by
// store.Postgres and store.Memory.
type Store interface {
	FindJobByURL(ctx context.Context, url string) (*model.Job, error)
	FindJobByFingerprint(ctx context.Context, fp string) (*model.Job, error)
	InsertJob(ctx context.Context, job *model.Job) (bool, error)
	RefreshJobSeen(ctx context.Context, id int64, seenAt time.Time) error
	MarkStale(ctx context.Context, cutoff time.Time, source string) (int64, error)
	JobsMissingFingerprint(ctx context.Context) ([]model.Job, error)
	SetJobFingerprint(ctx context.Context, id int64, fp string) error
	JobStats(ctx context.Context) (*model.JobStats, error)
}

// Outcome classifies one Ingest call.
type Outcome int

const (
	// Added: a new canonical record was created.
	Added Outcome = iota
	// Duplicate: an existing record was refreshed instead.
	Duplicate
	// Discarded: the record could not be ingested (no URL — nothing to
	// deduplicate against or link to).
	Discarded
)

// BatchResult counts the outcomes of one adapter's batch.
type BatchResult struct {
	Added      int
	Duplicates int
	Errors     int
}

// Service is the deduplicator. Safe for concurrent use by multiple adapter
// ingestion paths — every call is its own write unit.
type Service struct {
	store  Store
	events *redis.Client // optional; nil disables event publishing
	log    zerolog.Logger
	now    func() time.Time
}

// New builds a Service. events may be nil.
func New(store Store, events *redis.Client, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		log:    log.With().Str("component", "ingest").Logger(),
		now:    time.Now,
	}
}

// Ingest applies the insert-or-refresh decision for one job:
// URL match → refresh; fingerprint match → refresh; otherwise insert.
// A concurrent insert losing the uniqueness race degrades to the duplicate
// path rather than erroring.
func (s *Service) Ingest(ctx context.Context, job model.Job) (Outcome, error) {
	if job.URL == "" {
		s.log.Warn().Str("title", job.Title).Msg("discarding job without URL")
		return Discarded, nil
	}
	if job.Fingerprint == "" {
		job.Fingerprint = fingerprint.Generate(job.Title, job.Company, job.Source)
	}
	now := s.now()

	if existing, err := s.store.FindJobByURL(ctx, job.URL); err != nil {
		return Discarded, err
	} else if existing != nil {
		return Duplicate, s.store.RefreshJobSeen(ctx, existing.ID, now)
	}

	if existing, err := s.store.FindJobByFingerprint(ctx, job.Fingerprint); err != nil {
		return Discarded, err
	} else if existing != nil {
		return Duplicate, s.store.RefreshJobSeen(ctx, existing.ID, now)
	}

	job.FirstSeen = now
	job.LastSeen = now
	job.Active = true
	inserted, err := s.store.InsertJob(ctx, &job)
	if err != nil {
		return Discarded, err
	}
	if !inserted {
		// Lost the race to a concurrent adapter observing the same posting.
		if existing, err := s.store.FindJobByURL(ctx, job.URL); err == nil && existing != nil {
			return Duplicate, s.store.RefreshJobSeen(ctx, existing.ID, now)
		}
		if existing, err := s.store.FindJobByFingerprint(ctx, job.Fingerprint); err == nil && existing != nil {
			return Duplicate, s.store.RefreshJobSeen(ctx, existing.ID, now)
		}
		return Duplicate, nil
	}

	s.publish(ctx, "EVENT_JOB_ADDED", map[string]any{
		"jobId":  job.ID,
		"source": job.Source,
		"url":    job.URL,
	})
	return Added, nil
}

// IngestBatch runs Ingest over one adapter's output. Storage errors are
// counted, logged and never abort the rest of the batch.
func (s *Service) IngestBatch(ctx context.Context, jobs []model.Job) BatchResult {
	var res BatchResult
	for _, job := range jobs {
		outcome, err := s.Ingest(ctx, job)
		if err != nil {
			res.Errors++
			s.log.Error().Err(err).Str("url", job.URL).Msg("ingest failed")
			continue
		}
		switch outcome {
		case Added:
			res.Added++
		case Duplicate:
			res.Duplicates++
		case Discarded:
			res.Errors++
		}
	}
	return res
}

// SweepStale deactivates every active job not re-observed within threshold,
// optionally restricted to one source. Returns the number of jobs flipped.
func (s *Service) SweepStale(ctx context.Context, threshold time.Duration, source string) (int64, error) {
	cutoff := s.now().Add(-threshold)
	n, err := s.store.MarkStale(ctx, cutoff, source)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("deactivated", n).Str("source", source).
		Time("cutoff", cutoff).Msg("staleness sweep complete")
	return n, nil
}

// BackfillFingerprints computes and persists fingerprints for rows that
// predate fingerprinting. Returns the number updated.
func (s *Service) BackfillFingerprints(ctx context.Context) (int, error) {
	jobs, err := s.store.JobsMissingFingerprint(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, j := range jobs {
		fp := fingerprint.Generate(j.Title, j.Company, j.Source)
		if err := s.store.SetJobFingerprint(ctx, j.ID, fp); err != nil {
			s.log.Error().Err(err).Int64("jobId", j.ID).Msg("backfill failed")
			continue
		}
		updated++
	}
	return updated, nil
}

// Stats returns active/inactive counts, overall and per source.
func (s *Service) Stats(ctx context.Context) (*model.JobStats, error) {
	return s.store.JobStats(ctx)
}

// publish sends an event over Redis pub/sub. Non-fatal: ingestion outcomes
// never depend on the event bus being up.
func (s *Service) publish(ctx context.Context, channel string, payload map[string]any) {
	if s.events == nil {
		return
	}
	body, _ := json.Marshal(payload)
	if err := s.events.Publish(ctx, channel, body).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("event publish failed")
	}
}
