package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"jobscout/internal/model"
	"jobscout/internal/salary"
)

const dodaListURL = "https://doda.jp/DodaFront/View/JobSearchList.action"

// dodaAdapter extracts listings from doda. The board renders its result list
// client-side, so pages go through a headless browser session.
type dodaAdapter struct {
	parser *dodaParser
	log    zerolog.Logger
}

// NewDoda builds the doda adapter.
func NewDoda(sal *salary.Parser, log zerolog.Logger) Adapter {
	return &dodaAdapter{
		parser: &dodaParser{salary: sal},
		log:    log.With().Str("adapter", "doda").Logger(),
	}
}

func (a *dodaAdapter) Name() string { return "doda" }

const (
	dodaCardSel  = `a[href*="JobSearchDetail"]`
	dodaNextExpr = `//a[contains(text(), "次へ") or contains(text(), "次の")]`
)

// Run navigates to the search URL once, then pages by clicking the board's
// next control inside the live session: doda keeps the search context in
// session state, so re-navigating a parsed href would reset it.
func (a *dodaAdapter) Run(ctx context.Context, opts RunOptions) ([]model.Job, error) {
	session, err := newBrowserSession(ctx, opts.Timeout)
	if err != nil {
		return nil, err
	}
	defer session.close()

	pageURL := dodaSearchURL(opts)
	if err := session.navigate(pageURL, dodaCardSel); err != nil {
		return nil, fmt.Errorf("doda page 1: %w", err)
	}

	var jobs []model.Job
	for page := 1; ; page++ {
		html, err := session.html()
		if err != nil {
			return jobs, fmt.Errorf("doda page %d: %w", page, err)
		}

		batch, next, err := a.parser.ParsePage(model.RawDocument{
			Source: "doda", URL: pageURL, HTML: html,
		})
		if err != nil {
			return jobs, fmt.Errorf("doda page %d: %w", page, err)
		}
		jobs = append(jobs, batch...)
		a.log.Debug().Int("page", page).Int("jobs", len(batch)).Msg("page extracted")

		if next == "" || len(batch) == 0 {
			break
		}
		if opts.MaxPages > 0 && page >= opts.MaxPages {
			break
		}

		if err := politeDelay(ctx, opts.DelayMin, opts.DelayMax); err != nil {
			return jobs, err
		}
		if err := session.clickNext(dodaNextExpr, dodaCardSel); err != nil {
			return jobs, fmt.Errorf("doda page %d: %w", page+1, err)
		}
	}
	return jobs, nil
}

func dodaSearchURL(opts RunOptions) string {
	q := opts.Query()
	if opts.Location != "" {
		q += " " + opts.Location
	}
	params := url.Values{}
	params.Set("kw", strings.TrimSpace(q))
	params.Set("so", "50") // newest first
	return dodaListURL + "?" + params.Encode()
}

// dodaParser extracts job cards from a rendered doda result page. A card is
// the closest list container around a detail link; company sits in the card's
// heading, work location and pay in its definition lists.
type dodaParser struct {
	salary *salary.Parser
}

func (p *dodaParser) ParsePage(doc model.RawDocument) ([]model.Job, string, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, "", fmt.Errorf("parse doda html: %w", err)
	}

	var jobs []model.Job
	seen := map[string]bool{}
	gq.Find(`a[href*="JobSearchDetail"]`).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		jobURL := resolveNext(doc.URL, href)
		if seen[jobURL] {
			return
		}

		card := link.Closest("li, article")
		if card.Length() == 0 {
			card = link.Parent()
		}
		company := strings.TrimSpace(card.Find("h2").First().Text())
		title := strings.TrimSpace(link.Text())
		// Cards prefix the position with the company name.
		if company != "" {
			title = strings.TrimSpace(strings.TrimPrefix(title, company))
		}
		if title == "" {
			return
		}

		job := model.Job{
			Title:    title,
			Company:  company,
			URL:      jobURL,
			Source:   "doda",
			Location: dodaDefinition(card, "勤務地"),
		}
		job.SalaryText = dodaDefinition(card, "給与")
		if job.SalaryText != "" {
			job.SalaryAnnualMin, job.SalaryAnnualMax = p.salary.Parse(job.SalaryText)
		}
		seen[jobURL] = true
		jobs = append(jobs, job)
	})

	// A non-empty next only signals that the board's next control exists;
	// the adapter advances by clicking it, not by following the href.
	next := ""
	gq.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if strings.Contains(link.Text(), "次へ") || strings.Contains(link.Text(), "次の") {
			if href, ok := link.Attr("href"); ok && href != "" {
				next = href
			} else {
				next = "#"
			}
			return false
		}
		return true
	})
	return jobs, next, nil
}

// dodaDefinition reads the dd following the dt labelled label inside card.
func dodaDefinition(card *goquery.Selection, label string) string {
	value := ""
	card.Find("dl").EachWithBreak(func(_ int, dl *goquery.Selection) bool {
		if strings.Contains(dl.Find("dt").First().Text(), label) {
			value = strings.TrimSpace(dl.Find("dd").First().Text())
			return false
		}
		return true
	})
	return value
}
