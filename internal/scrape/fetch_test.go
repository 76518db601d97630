package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"jobscout/internal/model"
)

// markerParser emits one job per page and chains to /page/N+1 while the body
// says "more".
type markerParser struct{}

func (markerParser) ParsePage(doc model.RawDocument) ([]model.Job, string, error) {
	if strings.Contains(doc.HTML, "empty") {
		return nil, "", nil
	}
	job := model.Job{Title: "t", Company: "c", URL: doc.URL + "#job", Source: doc.Source}
	if strings.Contains(doc.HTML, "more") {
		return []model.Job{job}, nextOf(doc.URL), nil
	}
	return []model.Job{job}, "", nil
}

func nextOf(current string) string {
	var n int
	fmt.Sscanf(current[strings.LastIndex(current, "/")+1:], "%d", &n)
	return fmt.Sprintf("/page/%d", n+1)
}

func newTestAdapter(server *httptest.Server) *directAdapter {
	return &directAdapter{
		name:    "test",
		start:   func(RunOptions) string { return server.URL + "/page/1" },
		parser:  markerParser{},
		fetcher: NewFetcher(zerolog.Nop()),
		log:     zerolog.Nop(),
	}
}

func TestDirectAdapter_FollowsPaginationToExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page/3" {
			fmt.Fprint(w, "empty")
			return
		}
		fmt.Fprint(w, "more")
	}))
	defer server.Close()

	jobs, err := newTestAdapter(server).Run(context.Background(), RunOptions{MaxPages: 10})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("got %d jobs, want 2 (pages 1 and 2)", len(jobs))
	}
}

func TestDirectAdapter_HonorsMaxPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "more")
	}))
	defer server.Close()

	jobs, err := newTestAdapter(server).Run(context.Background(), RunOptions{MaxPages: 2})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("got %d jobs, want 2 (page ceiling)", len(jobs))
	}
}

func TestDirectAdapter_KeepsRecordsOnMidRunFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page/2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "more")
	}))
	defer server.Close()

	jobs, err := newTestAdapter(server).Run(context.Background(), RunOptions{MaxPages: 5})
	if err == nil {
		t.Fatal("expected an error from the failing second page")
	}
	if len(jobs) != 1 {
		t.Errorf("got %d jobs, want the page-1 record preserved", len(jobs))
	}
}

func TestPoliteDelay_Cancellable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := politeDelay(ctx, time.Minute, 2*time.Minute); err == nil {
		t.Error("cancelled context must abort the delay")
	}
}
