// jobscout crawls Japanese job boards, deduplicates the postings into one
// canonical table and scores them against per-owner search criteria.
//
// Usage:
//
//	jobscout <scrape|match|sweep|backfill|stats|serve-cron> [flags]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"jobscout/internal/config"
	"jobscout/internal/db"
	"jobscout/internal/ingest"
	"jobscout/internal/logger"
	"jobscout/internal/match"
	"jobscout/internal/model"
	"jobscout/internal/orchestrate"
	"jobscout/internal/salary"
	"jobscout/internal/scheduler"
	"jobscout/internal/scrape"
	"jobscout/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	flags := pflag.NewFlagSet(command, pflag.ExitOnError)
	configPath := flags.String("config", "", "path to the YAML config file")
	dryRun := flags.Bool("dry-run", false, "run against an in-memory store")
	ownerID := flags.Int64("owner", 0, "owner id to score jobs for (match)")
	minScore := flags.Int("min-score", -1, "persistence threshold override (match)")
	sweepDays := flags.Int("days", 0, "staleness threshold in days (sweep)")
	sweepSource := flags.String("source", "", "restrict the sweep to one source")
	var overrides config.ScrapeOverrides
	flags.StringSliceVar(&overrides.Keywords, "keywords", nil, "search keywords override (scrape)")
	flags.StringVar(&overrides.Location, "location", "", "search location override (scrape)")
	flags.IntVar(&overrides.MaxPages, "max-pages", 0, "page ceiling override (scrape)")
	flags.BoolVar(&overrides.Sequential, "sequential", false, "run adapters one at a time (scrape)")
	flags.StringSliceVar(&overrides.Only, "only", nil, "run only the named adapters (scrape)")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	overrides.Apply(&cfg.Scrape, adapterNames)
	log := logger.New(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, log, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer app.close()

	switch command {
	case "scrape":
		report := app.orchestrator.Run(ctx)
		printReport(report)
		if report.Failed > 0 {
			os.Exit(1)
		}
	case "match":
		if *ownerID == 0 {
			log.Fatal().Msg("match requires --owner")
		}
		threshold := cfg.Match.MinScore
		if *minScore >= 0 {
			threshold = *minScore
		}
		summary, err := app.matcher.MatchAllForOwner(ctx, *ownerID, threshold)
		if err != nil {
			log.Fatal().Err(err).Msg("match run failed")
		}
		fmt.Printf("owner %d: %d jobs evaluated, %d matched (%d new, %d updated), %d below threshold\n",
			summary.OwnerID, summary.TotalJobs, summary.Matched,
			summary.NewMatches, summary.UpdatedMatches, summary.BelowThreshold)
	case "sweep":
		days := cfg.Scheduler.SweepDays
		if *sweepDays > 0 {
			days = *sweepDays
		}
		n, err := app.ingester.SweepStale(ctx, time.Duration(days)*24*time.Hour, *sweepSource)
		if err != nil {
			log.Fatal().Err(err).Msg("sweep failed")
		}
		fmt.Printf("deactivated %d stale jobs (threshold %dd)\n", n, days)
	case "backfill":
		n, err := app.ingester.BackfillFingerprints(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("backfill failed")
		}
		fmt.Printf("backfilled %d fingerprints\n", n)
	case "stats":
		stats, err := app.ingester.Stats(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("stats failed")
		}
		printStats(stats)
	case "serve-cron":
		sched := scheduler.New(app.orchestrator, app.ingester, cfg.Scheduler, log)
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("scheduler start failed")
		}
		<-ctx.Done()
		sched.Stop()
	default:
		usage()
		os.Exit(2)
	}
}

// adapterNames lists every registered adapter, in run order.
var adapterNames = []string{"doda", "green", "indeed", "wantedly"}

// app bundles the wired pipeline for one command invocation.
type app struct {
	orchestrator *orchestrate.Orchestrator
	ingester     *ingest.Service
	matcher      *match.Service
	close        func()
}

// appStore is the union storage surface the pipeline needs.
type appStore interface {
	ingest.Store
	match.Store
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, dryRun bool) (*app, error) {
	closers := []func(){}

	var st appStore
	switch {
	case dryRun || cfg.DatabaseURL == "":
		if !dryRun {
			log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		}
		st = store.NewMemory()
	default:
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, pool.Close)
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		st = store.NewPostgres(pool)
	}

	var events *redis.Client
	if cfg.RedisURL != "" && !dryRun {
		client, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			// Events are best-effort; the pipeline runs without them.
			log.Warn().Err(err).Msg("redis unavailable, events disabled")
		} else {
			events = client
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	salaryParser := &salary.Parser{MonthlyCutoff: cfg.Salary.MonthlyCutoff}
	fetcher := scrape.NewFetcher(log)
	adapters := []scrape.Adapter{
		scrape.NewDoda(salaryParser, log),
		scrape.NewGreen(fetcher, salaryParser, log),
		scrape.NewIndeed(fetcher, salaryParser, log),
		scrape.NewWantedly(log),
	}

	ingester := ingest.New(st, events, log)
	scorer := match.NewScorer(match.Weights{
		Title:       cfg.Match.TitleWeight,
		Description: cfg.Match.DescriptionWeight,
		Location:    cfg.Match.LocationWeight,
		Salary:      cfg.Match.SalaryWeight,
	})

	return &app{
		orchestrator: orchestrate.New(adapters, ingester, cfg.Scrape, log),
		ingester:     ingester,
		matcher:      match.NewService(st, scorer, events, log),
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

func printReport(report *orchestrate.Report) {
	fmt.Printf("%-10s %-8s %8s %8s %8s %8s %10s\n",
		"ADAPTER", "STATUS", "SCRAPED", "ADDED", "DUPES", "ERRORS", "DURATION")
	for _, r := range report.Results {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Printf("%-10s %-8s %8d %8d %8d %8d %10s\n",
			r.Name, status, r.Scraped, r.Added, r.Duplicates, r.Errors,
			r.Duration.Round(time.Millisecond))
	}
	fmt.Printf("total: %d scraped, %d added, %d duplicates, %d errors (%d/%d adapters ok) in %s\n",
		report.TotalScraped, report.TotalAdded, report.TotalDuplicates,
		report.TotalErrors, report.Succeeded, len(report.Results),
		report.Duration.Round(time.Millisecond))
}

func printStats(stats *model.JobStats) {
	fmt.Printf("%-10s %8s %8s\n", "SOURCE", "ACTIVE", "INACTIVE")
	for source, s := range stats.BySource {
		fmt.Printf("%-10s %8d %8d\n", source, s.Active, s.Inactive)
	}
	fmt.Printf("total: %d jobs (%d active, %d inactive)\n",
		stats.Total, stats.Active, stats.Inactive)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: jobscout <command> [flags]

commands:
  scrape      run one extraction cycle over the enabled boards
              (overrides: --keywords --location --max-pages --sequential --only)
  match       score all stored jobs for an owner (--owner N [--min-score N])
  sweep       deactivate jobs not seen recently ([--days N] [--source s])
  backfill    compute fingerprints for legacy rows
  stats       print per-source active/inactive counts
  serve-cron  run scrape + sweep on the configured schedules

common flags: --config path, --dry-run`)
}
