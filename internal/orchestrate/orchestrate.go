// Package orchestrate runs the configured extraction adapters as one cycle,
// sequentially or on a bounded worker pool, and aggregates the outcome.
package orchestrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jobscout/internal/config"
	"jobscout/internal/ingest"
	"jobscout/internal/scrape"
)

// AdapterResult records one adapter run. A run that panicked or returned an
// error is Success=false but still carries whatever it scraped and ingested
// before failing.
type AdapterResult struct {
	Name       string
	Success    bool
	Scraped    int
	Added      int
	Duplicates int
	Errors     int
	Duration   time.Duration
	Err        error
}

// Report is the settled outcome of one orchestration cycle. It is computed
// only after every dispatched adapter has finished.
type Report struct {
	Results         []AdapterResult
	TotalScraped    int
	TotalAdded      int
	TotalDuplicates int
	TotalErrors     int
	Succeeded       int
	Failed          int
	Duration        time.Duration
}

// Orchestrator fans one scrape cycle out over the enabled adapters.
type Orchestrator struct {
	adapters []scrape.Adapter
	ingester *ingest.Service
	cfg      config.ScrapeConfig
	log      zerolog.Logger
}

// New builds an Orchestrator over the given adapters.
func New(adapters []scrape.Adapter, ingester *ingest.Service, cfg config.ScrapeConfig, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		adapters: adapters,
		ingester: ingester,
		cfg:      cfg,
		log:      log.With().Str("component", "orchestrate").Logger(),
	}
}

// Run executes one full cycle. An adapter failure never aborts the cycle:
// each run settles into exactly one AdapterResult.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	start := time.Now()

	var enabled []scrape.Adapter
	for _, a := range o.adapters {
		if o.cfg.Enabled(a.Name()) {
			enabled = append(enabled, a)
		} else {
			o.log.Info().Str("adapter", a.Name()).Msg("adapter disabled, skipping")
		}
	}

	results := make([]AdapterResult, len(enabled))
	if o.cfg.Parallel && o.cfg.Workers > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, o.cfg.Workers)
		for i, a := range enabled {
			wg.Add(1)
			go func(i int, a scrape.Adapter) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[i] = o.runOne(ctx, a)
			}(i, a)
		}
		wg.Wait()
	} else {
		for i, a := range enabled {
			results[i] = o.runOne(ctx, a)
		}
	}

	report := &Report{Results: results, Duration: time.Since(start)}
	for _, r := range results {
		report.TotalScraped += r.Scraped
		report.TotalAdded += r.Added
		report.TotalDuplicates += r.Duplicates
		report.TotalErrors += r.Errors
		if r.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	o.log.Info().Int("adapters", len(results)).Int("scraped", report.TotalScraped).
		Int("added", report.TotalAdded).Int("failed", report.Failed).
		Dur("duration", report.Duration).Msg("cycle complete")
	return report
}

// runOne executes a single adapter with panic isolation. Records collected
// before a mid-run failure are still ingested.
func (o *Orchestrator) runOne(ctx context.Context, a scrape.Adapter) (res AdapterResult) {
	start := time.Now()
	res.Name = a.Name()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Success = false
			res.Err = fmt.Errorf("adapter %s panicked: %v", a.Name(), r)
			o.log.Error().Str("adapter", a.Name()).Interface("panic", r).Msg("adapter panicked")
		}
	}()

	opts := runOptions(o.cfg.Merged(a.Name()))
	jobs, runErr := a.Run(ctx, opts)
	res.Scraped = len(jobs)

	batch := o.ingester.IngestBatch(ctx, jobs)
	res.Added = batch.Added
	res.Duplicates = batch.Duplicates
	res.Errors = batch.Errors

	if runErr != nil {
		res.Err = runErr
		o.log.Error().Err(runErr).Str("adapter", a.Name()).
			Int("scraped", res.Scraped).Msg("adapter failed")
		return res
	}
	res.Success = true
	return res
}

func runOptions(opts config.AdapterOptions) scrape.RunOptions {
	return scrape.RunOptions{
		Keywords: opts.Keywords,
		Location: opts.Location,
		MaxPages: opts.MaxPages,
		DelayMin: time.Duration(opts.DelayMinMS) * time.Millisecond,
		DelayMax: time.Duration(opts.DelayMaxMS) * time.Millisecond,
		Timeout:  time.Duration(opts.TimeoutSeconds) * time.Second,
	}
}
