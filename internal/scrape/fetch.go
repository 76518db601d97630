package scrape

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"jobscout/internal/model"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Fetcher is the shared HTTP client for the plain-HTML boards.
type Fetcher struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewFetcher builds a Fetcher with a browser-like User-Agent.
func NewFetcher(log zerolog.Logger) *Fetcher {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "ja,en;q=0.8").
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)
	return &Fetcher{client: client, log: log.With().Str("component", "fetch").Logger()}
}

// Get fetches one listing page. timeout bounds this single request; a page
// exceeding it errors without retrying forever.
func (f *Fetcher) Get(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := f.client.R().SetContext(reqCtx).Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", pageURL, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("GET %s: status %d", pageURL, resp.StatusCode())
	}
	return resp.String(), nil
}

// politeDelay sleeps a random duration within [min, max]. The delay is a
// politeness contract toward the boards and is never skipped between pages.
func politeDelay(ctx context.Context, min, max time.Duration) error {
	if max <= 0 {
		return nil
	}
	if min < 0 {
		min = 0
	}
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// directAdapter runs a PageParser over a paginated plain-HTML board.
type directAdapter struct {
	name    string
	start   func(opts RunOptions) string
	parser  PageParser
	fetcher *Fetcher
	log     zerolog.Logger
}

func (a *directAdapter) Name() string { return a.name }

func (a *directAdapter) Run(ctx context.Context, opts RunOptions) ([]model.Job, error) {
	pageURL := a.start(opts)
	var jobs []model.Job

	for page := 1; opts.MaxPages <= 0 || page <= opts.MaxPages; page++ {
		if page > 1 {
			if err := politeDelay(ctx, opts.DelayMin, opts.DelayMax); err != nil {
				return jobs, err
			}
		}

		html, err := a.fetcher.Get(ctx, pageURL, opts.Timeout)
		if err != nil {
			return jobs, fmt.Errorf("%s page %d: %w", a.name, page, err)
		}

		batch, next, err := a.parser.ParsePage(model.RawDocument{
			Source: a.name, URL: pageURL, HTML: html,
		})
		if err != nil {
			return jobs, fmt.Errorf("%s page %d: %w", a.name, page, err)
		}
		jobs = append(jobs, batch...)
		a.log.Debug().Str("adapter", a.name).Int("page", page).
			Int("jobs", len(batch)).Msg("page extracted")

		if next == "" || len(batch) == 0 {
			break
		}
		pageURL = resolveNext(pageURL, next)
	}
	return jobs, nil
}
