package match

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"jobscout/internal/model"
)

// ErrNoCriteria is returned when the owner has no stored search criteria.
var ErrNoCriteria = errors.New("owner has no search criteria")

// Store is the storage surface a scoring run needs. Satisfied by
// store.Postgres and store.Memory.
type Store interface {
	ListJobs(ctx context.Context) ([]model.Job, error)
	LatestCriteria(ctx context.Context, ownerID int64) (*model.SearchCriteria, error)
	FindMatch(ctx context.Context, ownerID, jobID int64) (*model.MatchResult, error)
	UpsertMatch(ctx context.Context, m *model.MatchResult) (bool, error)
}

// Summary aggregates one MatchAllForOwner run.
type Summary struct {
	OwnerID        int64 `json:"ownerId"`
	TotalJobs      int   `json:"totalJobs"`
	Matched        int   `json:"matched"`
	BelowThreshold int   `json:"belowThreshold"`
	NewMatches     int   `json:"newMatches"`
	UpdatedMatches int   `json:"updatedMatches"`
}

// Service runs scoring passes over the whole job table.
type Service struct {
	store  Store
	scorer *Scorer
	events *redis.Client // optional; nil disables event publishing
	log    zerolog.Logger
	now    func() time.Time
}

// NewService builds a Service. events may be nil.
func NewService(store Store, scorer *Scorer, events *redis.Client, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		scorer: scorer,
		events: events,
		log:    log.With().Str("component", "match").Logger(),
		now:    time.Now,
	}
}

// MatchAllForOwner rescores every stored job against the owner's latest
// criteria. Rows at or above minScore are inserted or score-updated; a job
// dropping below minScore still updates its existing row (kept, never
// deleted) but no new row is created for it.
func (s *Service) MatchAllForOwner(ctx context.Context, ownerID int64, minScore int) (*Summary, error) {
	criteria, err := s.store.LatestCriteria(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if criteria == nil {
		return nil, ErrNoCriteria
	}

	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{OwnerID: ownerID, TotalJobs: len(jobs)}
	now := s.now()
	for _, job := range jobs {
		score, breakdown := s.scorer.Score(job, *criteria)
		result := &model.MatchResult{
			OwnerID:    ownerID,
			JobID:      job.ID,
			Score:      score,
			Breakdown:  breakdown,
			ComputedAt: now,
		}

		if score < minScore {
			summary.BelowThreshold++
			existing, err := s.store.FindMatch(ctx, ownerID, job.ID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				if _, err := s.store.UpsertMatch(ctx, result); err != nil {
					return nil, err
				}
				summary.UpdatedMatches++
			}
			continue
		}

		summary.Matched++
		created, err := s.store.UpsertMatch(ctx, result)
		if err != nil {
			return nil, err
		}
		if created {
			summary.NewMatches++
		} else {
			summary.UpdatedMatches++
		}
	}

	s.log.Info().Int64("ownerId", ownerID).Int("totalJobs", summary.TotalJobs).
		Int("matched", summary.Matched).Int("new", summary.NewMatches).
		Msg("scoring run complete")
	s.publishSummary(ctx, summary)
	return summary, nil
}

// publishSummary announces a finished scoring run. Non-fatal.
func (s *Service) publishSummary(ctx context.Context, summary *Summary) {
	if s.events == nil {
		return
	}
	body, _ := json.Marshal(summary)
	if err := s.events.Publish(ctx, "EVENT_MATCH_RUN", body).Err(); err != nil {
		s.log.Warn().Err(err).Msg("event publish failed")
	}
}
