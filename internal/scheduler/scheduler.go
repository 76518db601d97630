// Package scheduler wires up the cron jobs that periodically run a scrape
// cycle and the staleness sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"jobscout/internal/config"
	"jobscout/internal/ingest"
	"jobscout/internal/orchestrate"
)

// Scheduler wraps robfig/cron around the orchestrator and the sweep.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *orchestrate.Orchestrator
	ingester     *ingest.Service
	cfg          config.SchedulerConfig
	log          zerolog.Logger
}

// New builds a Scheduler from the configured specs.
func New(orchestrator *orchestrate.Orchestrator, ingester *ingest.Service, cfg config.SchedulerConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
		ingester:     ingester,
		cfg:          cfg,
		log:          log.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers both jobs and starts the cron loop. A scrape cycle also
// runs immediately so the table is populated without waiting for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.ScrapeSpec, func() { s.runCycle(ctx) }); err != nil {
		return fmt.Errorf("register scrape job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.SweepSpec, func() { s.runSweep(ctx) }); err != nil {
		return fmt.Errorf("register sweep job: %w", err)
	}

	s.cron.Start()
	s.log.Info().Str("scrapeSpec", s.cfg.ScrapeSpec).
		Str("sweepSpec", s.cfg.SweepSpec).Msg("cron started")

	go s.runCycle(ctx)
	return nil
}

// Stop shuts the cron loop down and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("cron stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	s.log.Info().Msg("scheduled scrape cycle started")
	report := s.orchestrator.Run(ctx)
	s.log.Info().Int("added", report.TotalAdded).Int("failed", report.Failed).
		Msg("scheduled scrape cycle complete")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	threshold := time.Duration(s.cfg.SweepDays) * 24 * time.Hour
	if _, err := s.ingester.SweepStale(ctx, threshold, ""); err != nil {
		s.log.Error().Err(err).Msg("scheduled sweep failed")
	}
}
