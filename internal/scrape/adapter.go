// Package scrape acquires raw listing pages from the supported job boards and
// extracts structured jobs out of them. Each board gets one Adapter; boards
// that serve plain HTML go through the shared HTTP pagination loop, boards
// that render client-side go through a headless browser session.
package scrape

import (
	"context"
	"net/url"
	"strings"
	"time"

	"jobscout/internal/model"
)

// RunOptions are the effective settings for one adapter run.
type RunOptions struct {
	Keywords []string
	Location string
	MaxPages int
	DelayMin time.Duration
	DelayMax time.Duration
	Timeout  time.Duration
}

// Query joins the keywords into the search phrase the boards expect.
func (o RunOptions) Query() string {
	return strings.Join(o.Keywords, " ")
}

// Adapter extracts jobs from one board. Run walks the board's pagination to
// exhaustion or opts.MaxPages, whichever comes first. On a mid-run fetch or
// parse failure it returns the records collected so far together with the
// error.
type Adapter interface {
	Name() string
	Run(ctx context.Context, opts RunOptions) ([]model.Job, error)
}

// PageParser turns one raw listing page into jobs plus the next page URL
// ("" terminates pagination). Parsers are pure: all network access happens
// in the adapter around them.
type PageParser interface {
	ParsePage(doc model.RawDocument) (jobs []model.Job, next string, err error)
}

// resolveNext absolutizes a possibly-relative next-page link.
func resolveNext(current, next string) string {
	base, err := url.Parse(current)
	if err != nil {
		return next
	}
	ref, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
