package scrape

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"jobscout/internal/model"
)

const wantedlyBaseURL = "https://www.wantedly.com"

var wantedlyProjectRe = regexp.MustCompile(`/projects/(\d+)`)

// wantedlyAdapter extracts listings from Wantedly. The board infinite-scrolls
// instead of paginating, so opts.MaxPages counts scroll rounds; extraction
// prefers the embedded page-state JSON and falls back to anchor scanning.
// Wantedly never publishes pay, so jobs carry no salary fields.
type wantedlyAdapter struct {
	parser *wantedlyParser
	log    zerolog.Logger
}

// NewWantedly builds the Wantedly adapter.
func NewWantedly(log zerolog.Logger) Adapter {
	return &wantedlyAdapter{
		parser: &wantedlyParser{},
		log:    log.With().Str("adapter", "wantedly").Logger(),
	}
}

func (a *wantedlyAdapter) Name() string { return "wantedly" }

func (a *wantedlyAdapter) Run(ctx context.Context, opts RunOptions) ([]model.Job, error) {
	session, err := newBrowserSession(ctx, opts.Timeout)
	if err != nil {
		return nil, err
	}
	defer session.close()

	pageURL := wantedlySearchURL(opts)
	if err := session.navigate(pageURL, `a[href*="/projects/"]`); err != nil {
		return nil, fmt.Errorf("wantedly: %w", err)
	}

	rounds := opts.MaxPages
	if rounds < 1 {
		rounds = 1
	}
	for i := 1; i < rounds; i++ {
		if err := politeDelay(ctx, opts.DelayMin, opts.DelayMax); err != nil {
			break
		}
		if err := session.scrollBottom(2 * time.Second); err != nil {
			a.log.Warn().Err(err).Int("round", i).Msg("scroll failed, extracting what loaded")
			break
		}
	}

	html, err := session.html()
	if err != nil {
		return nil, fmt.Errorf("wantedly: %w", err)
	}
	jobs, _, err := a.parser.ParsePage(model.RawDocument{
		Source: "wantedly", URL: pageURL, HTML: html,
	})
	return jobs, err
}

func wantedlySearchURL(opts RunOptions) string {
	params := url.Values{}
	params.Set("type", "mixed")
	for _, kw := range opts.Keywords {
		params.Add("keywords[]", kw)
	}
	if opts.Location != "" {
		params.Add("keywords[]", opts.Location)
	}
	return wantedlyBaseURL + "/projects?" + params.Encode()
}

type wantedlyParser struct{}

func (p *wantedlyParser) ParsePage(doc model.RawDocument) ([]model.Job, string, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, "", fmt.Errorf("parse wantedly html: %w", err)
	}

	if jobs := projectsFromState(gq); len(jobs) > 0 {
		return jobs, "", nil
	}
	return projectsFromAnchors(gq, doc.URL), "", nil
}

// projectsFromState reads the Next.js page-state JSON the listing ships with.
func projectsFromState(gq *goquery.Document) []model.Job {
	raw := gq.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" || !gjson.Valid(raw) {
		return nil
	}

	var jobs []model.Job
	projects := gjson.Get(raw, "props.pageProps.searchResult.projects")
	projects.ForEach(func(_, p gjson.Result) bool {
		id := p.Get("id").String()
		title := strings.TrimSpace(p.Get("title").String())
		if id == "" || title == "" {
			return true
		}
		jobs = append(jobs, model.Job{
			Title:       title,
			Company:     strings.TrimSpace(p.Get("company.name").String()),
			Description: strings.TrimSpace(p.Get("description").String()),
			Location:    strings.TrimSpace(p.Get("location").String()),
			URL:         wantedlyBaseURL + "/projects/" + id,
			Source:      "wantedly",
		})
		return true
	})
	return jobs
}

// projectsFromAnchors is the markup fallback when the state JSON is absent
// or its shape moved.
func projectsFromAnchors(gq *goquery.Document, baseURL string) []model.Job {
	var jobs []model.Job
	seen := map[string]bool{}
	gq.Find(`a[href*="/projects/"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := wantedlyProjectRe.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}

		card := cardAround(link)
		jobs = append(jobs, model.Job{
			Title:   title,
			Company: firstMatching(textLines(card), corpNameRe),
			URL:     resolveNext(baseURL, href),
			Source:  "wantedly",
		})
		seen[m[1]] = true
	})
	return jobs
}
