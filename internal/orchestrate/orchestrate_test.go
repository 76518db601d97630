package orchestrate_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	"jobscout/internal/ingest"
	"jobscout/internal/model"
	"jobscout/internal/orchestrate"
	"jobscout/internal/scrape"
	"jobscout/internal/store"
)

// fakeAdapter yields canned jobs, optionally failing or panicking after them.
type fakeAdapter struct {
	name  string
	jobs  []model.Job
	err   error
	panic bool
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Run(context.Context, scrape.RunOptions) ([]model.Job, error) {
	if f.panic {
		panic("selector engine blew up")
	}
	return f.jobs, f.err
}

func jobsFor(source string, n int) []model.Job {
	out := make([]model.Job, n)
	for i := range out {
		out[i] = model.Job{
			Title:   fmt.Sprintf("デザイナー %d", i),
			Company: "株式会社テスト",
			URL:     fmt.Sprintf("https://%s.test/job/%d", source, i),
			Source:  source,
		}
	}
	return out
}

func newOrchestrator(t *testing.T, cfg config.ScrapeConfig, adapters ...scrape.Adapter) (*orchestrate.Orchestrator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ing := ingest.New(mem, nil, zerolog.Nop())
	return orchestrate.New(adapters, ing, cfg, zerolog.Nop()), mem
}

func TestRun_FailureIsolation(t *testing.T) {
	cfg := config.ScrapeConfig{Parallel: false, Workers: 1}
	o, mem := newOrchestrator(t, cfg,
		&fakeAdapter{name: "doda", jobs: jobsFor("doda", 3)},
		&fakeAdapter{name: "green", err: errors.New("board unreachable")},
		&fakeAdapter{name: "indeed", panic: true},
	)

	report := o.Run(context.Background())
	require.Len(t, report.Results, 3, "every adapter settles into one result")
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 3, report.TotalScraped)
	assert.Equal(t, 3, report.TotalAdded)

	jobs, err := mem.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 3, "failures must not block the succeeding adapter's writes")
}

func TestRun_FailedAdapterKeepsPartialRecords(t *testing.T) {
	cfg := config.ScrapeConfig{Workers: 1}
	o, mem := newOrchestrator(t, cfg,
		&fakeAdapter{name: "green", jobs: jobsFor("green", 2), err: errors.New("page 3 timed out")},
	)

	report := o.Run(context.Background())
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
	assert.Equal(t, 2, res.Scraped)
	assert.Equal(t, 2, res.Added, "records collected before the failure are ingested")

	jobs, _ := mem.ListJobs(context.Background())
	assert.Len(t, jobs, 2)
}

func TestRun_ParallelMatchesSequentialTotals(t *testing.T) {
	adapters := []scrape.Adapter{
		&fakeAdapter{name: "doda", jobs: jobsFor("doda", 2)},
		&fakeAdapter{name: "green", jobs: jobsFor("green", 3)},
		&fakeAdapter{name: "indeed", jobs: jobsFor("indeed", 1)},
		&fakeAdapter{name: "wantedly", err: errors.New("login wall")},
	}

	seqO, _ := newOrchestrator(t, config.ScrapeConfig{Workers: 1}, adapters...)
	parO, _ := newOrchestrator(t, config.ScrapeConfig{Parallel: true, Workers: 3}, adapters...)

	seq := seqO.Run(context.Background())
	par := parO.Run(context.Background())

	assert.Equal(t, seq.TotalScraped, par.TotalScraped)
	assert.Equal(t, seq.TotalAdded, par.TotalAdded)
	assert.Equal(t, seq.Succeeded, par.Succeeded)
	assert.Equal(t, seq.Failed, par.Failed)

	// Result order is stable regardless of completion order.
	for i, a := range adapters {
		assert.Equal(t, a.Name(), par.Results[i].Name)
	}
}

func TestRun_DisabledAdapterSkipped(t *testing.T) {
	enabled := false
	cfg := config.ScrapeConfig{
		Workers:  1,
		Adapters: map[string]config.AdapterOverride{"indeed": {Enabled: &enabled}},
	}
	o, _ := newOrchestrator(t, cfg,
		&fakeAdapter{name: "doda", jobs: jobsFor("doda", 1)},
		&fakeAdapter{name: "indeed", jobs: jobsFor("indeed", 5)},
	)

	report := o.Run(context.Background())
	require.Len(t, report.Results, 1)
	assert.Equal(t, "doda", report.Results[0].Name)
	assert.Equal(t, 1, report.TotalScraped)
}

func TestRun_CrossAdapterDuplicateResolvesToOneRecord(t *testing.T) {
	// Same posting surfacing on two boards under the same source id: the
	// fingerprint keeps exactly one record.
	shared := model.Job{
		Title:   "UXデザイナー",
		Company: "株式会社テスト",
		Source:  "doda",
	}
	first := shared
	first.URL = "https://doda.test/job/a"
	second := shared
	second.URL = "https://doda.test/job/b"

	o, mem := newOrchestrator(t, config.ScrapeConfig{Workers: 1},
		&fakeAdapter{name: "doda", jobs: []model.Job{first}},
		&fakeAdapter{name: "doda-mirror", jobs: []model.Job{second}},
	)

	report := o.Run(context.Background())
	assert.Equal(t, 1, report.TotalAdded)
	assert.Equal(t, 1, report.TotalDuplicates)

	jobs, _ := mem.ListJobs(context.Background())
	assert.Len(t, jobs, 1)
}
