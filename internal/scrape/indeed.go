package scrape

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"jobscout/internal/model"
	"jobscout/internal/salary"
)

const indeedBaseURL = "https://jp.indeed.com"

// NewIndeed builds the Indeed Japan adapter (plain HTML, next-link
// pagination).
func NewIndeed(fetcher *Fetcher, sal *salary.Parser, log zerolog.Logger) Adapter {
	return &directAdapter{
		name: "indeed",
		start: func(opts RunOptions) string {
			params := url.Values{}
			params.Set("q", opts.Query())
			if opts.Location != "" {
				params.Set("l", opts.Location)
			}
			return indeedBaseURL + "/jobs?" + params.Encode()
		},
		parser:  &indeedParser{salary: sal},
		fetcher: fetcher,
		log:     log,
	}
}

// indeedParser extracts result cards. Indeed's markup is stable around the
// jcs-JobTitle anchor and data-testid attributes; the canonical job URL is
// rebuilt from the data-jk key so tracking parameters never reach storage.
type indeedParser struct {
	salary *salary.Parser
}

func (p *indeedParser) ParsePage(doc model.RawDocument) ([]model.Job, string, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, "", fmt.Errorf("parse indeed html: %w", err)
	}

	var jobs []model.Job
	seen := map[string]bool{}
	gq.Find("a.jcs-JobTitle").Each(func(_ int, link *goquery.Selection) {
		title := strings.TrimSpace(link.Find("span").First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" {
			return
		}

		jobURL := ""
		if jk, ok := link.Attr("data-jk"); ok && jk != "" {
			jobURL = indeedBaseURL + "/viewjob?jk=" + jk
		} else if href, ok := link.Attr("href"); ok {
			jobURL = resolveNext(doc.URL, href)
		}
		if jobURL == "" || seen[jobURL] {
			return
		}

		card := link.Closest("li")
		if card.Length() == 0 {
			card = link.Closest("td, div.job_seen_beacon")
		}
		job := model.Job{
			Title:    title,
			Company:  strings.TrimSpace(card.Find(`[data-testid="company-name"]`).First().Text()),
			Location: strings.TrimSpace(card.Find(`[data-testid="text-location"]`).First().Text()),
			URL:      jobURL,
			Source:   "indeed",
		}
		job.SalaryText = indeedSalaryText(card)
		if job.SalaryText != "" {
			job.SalaryAnnualMin, job.SalaryAnnualMax = p.salary.Parse(job.SalaryText)
		}
		seen[jobURL] = true
		jobs = append(jobs, job)
	})

	next := ""
	if href, ok := gq.Find(`a[data-testid="pagination-page-next"]`).First().Attr("href"); ok {
		next = href
	}
	return jobs, next, nil
}

func indeedSalaryText(card *goquery.Selection) string {
	if text := strings.TrimSpace(card.Find(`[class*="salary"]`).First().Text()); text != "" {
		return text
	}
	// Older card layouts put pay in an unmarked div.
	text := ""
	card.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		own := strings.TrimSpace(div.Text())
		if strings.Contains(own, "万円") && len([]rune(own)) < 60 {
			text = own
			return false
		}
		return true
	})
	return text
}
