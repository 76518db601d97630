package scrape

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"jobscout/internal/model"
	"jobscout/internal/salary"
)

const greenSearchURL = "https://www.green-japan.com/search_key"

var (
	greenJobLinkRe  = regexp.MustCompile(`/job/(\d+)`)
	corpNameRe      = regexp.MustCompile(`(株式会社|有限会社|合同会社)`)
	greenLocationRe = regexp.MustCompile(`(都|道|府|県)($|[/・、\s])`)
)

// NewGreen builds the Green adapter. Green serves plain HTML with numbered
// pagination, so it runs on the shared HTTP loop.
func NewGreen(fetcher *Fetcher, sal *salary.Parser, log zerolog.Logger) Adapter {
	return &directAdapter{
		name: "green",
		start: func(opts RunOptions) string {
			params := url.Values{}
			params.Set("keyword", opts.Query())
			if opts.Location != "" {
				params.Set("area", opts.Location)
			}
			return greenSearchURL + "?" + params.Encode()
		},
		parser:  &greenParser{salary: sal},
		fetcher: fetcher,
		log:     log,
	}
}

// greenParser extracts jobs from a Green search result page. Green's card
// markup carries no stable classes, so extraction anchors on /job/NNN links
// and applies line heuristics to the surrounding card text.
type greenParser struct {
	salary *salary.Parser
}

func (p *greenParser) ParsePage(doc model.RawDocument) ([]model.Job, string, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, "", fmt.Errorf("parse green html: %w", err)
	}

	var jobs []model.Job
	seen := map[string]bool{}
	gq.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := greenJobLinkRe.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}

		card := cardAround(link)
		lines := textLines(card)
		title := strings.TrimSpace(link.Text())
		if title == "" && len(lines) > 0 {
			title = lines[0]
		}
		if title == "" {
			return
		}

		job := model.Job{
			Title:   title,
			Company: firstMatching(lines, corpNameRe),
			URL:     resolveNext(doc.URL, href),
			Source:  "green",
		}
		for _, line := range lines {
			if job.Location == "" && line != job.Company && greenLocationRe.MatchString(line) && len([]rune(line)) < 30 {
				job.Location = line
			}
			if job.SalaryText == "" && strings.Contains(line, "万円") {
				job.SalaryText = line
			}
		}
		if job.SalaryText != "" {
			job.SalaryAnnualMin, job.SalaryAnnualMax = p.salary.Parse(job.SalaryText)
		}
		seen[m[1]] = true
		jobs = append(jobs, job)
	})

	next := ""
	if len(jobs) > 0 {
		next = incrementPageParam(doc.URL)
	}
	return jobs, next, nil
}

// cardAround walks up from a job link until it reaches a container with
// enough text to be the whole card.
func cardAround(link *goquery.Selection) *goquery.Selection {
	node := link
	for i := 0; i < 5; i++ {
		parent := node.Parent()
		if parent.Length() == 0 {
			break
		}
		node = parent
		if len([]rune(strings.TrimSpace(node.Text()))) > 100 {
			break
		}
	}
	return node
}

func textLines(sel *goquery.Selection) []string {
	var lines []string
	for _, line := range strings.Split(sel.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func firstMatching(lines []string, re *regexp.Regexp) string {
	for _, line := range lines {
		if re.MatchString(line) && len([]rune(line)) < 50 {
			return line
		}
	}
	return ""
}

// incrementPageParam returns current with its page query parameter bumped by
// one (absent means page 1).
func incrementPageParam(current string) string {
	u, err := url.Parse(current)
	if err != nil {
		return ""
	}
	params := u.Query()
	page := 1
	if v := params.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	params.Set("page", strconv.Itoa(page+1))
	u.RawQuery = params.Encode()
	return u.String()
}
