// Package match scores stored jobs against an owner's search criteria and
// maintains the persisted match rows.
package match

import (
	"fmt"
	"strings"

	"jobscout/internal/model"
)

// Weights splits the 100-point score across the four signals.
type Weights struct {
	Title       int
	Description int
	Location    int
	Salary      int
}

// DefaultWeights is the stock 40/30/15/15 split.
var DefaultWeights = Weights{Title: 40, Description: 30, Location: 15, Salary: 15}

// Validate rejects weight sets that cannot produce a 0–100 score.
func (w Weights) Validate() error {
	if sum := w.Title + w.Description + w.Location + w.Salary; sum != 100 {
		return fmt.Errorf("match weights must sum to 100, got %d", sum)
	}
	return nil
}

// Scorer computes a 0–100 score with an explainable breakdown.
type Scorer struct {
	weights Weights
}

// NewScorer builds a Scorer; invalid weights fall back to DefaultWeights.
func NewScorer(w Weights) *Scorer {
	if w.Validate() != nil {
		w = DefaultWeights
	}
	return &Scorer{weights: w}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func containsTerm(haystack, term string) bool {
	term = normalize(term)
	return term != "" && strings.Contains(haystack, term)
}

// Score evaluates job against criteria. Missing optional fields never error:
// an empty signal simply contributes 0 (salary preference absence contributes
// the full salary weight — the owner does not care). Any red-flag term found
// in title, company or description forces the score to 0.
func (s *Scorer) Score(job model.Job, criteria model.SearchCriteria) (int, model.MatchBreakdown) {
	var b model.MatchBreakdown

	title := normalize(job.Title)
	description := normalize(job.Description)

	for _, flag := range criteria.RedFlags {
		combined := title + " " + normalize(job.Company) + " " + description
		if containsTerm(combined, flag) {
			b.Excluded = true
			return 0, b
		}
	}

	// Title coverage, then description coverage of the keywords the title
	// missed. When the title credits every keyword, the description weight is
	// a bonus awarded only if some keyword also shows up there.
	if len(criteria.Keywords) > 0 {
		var remaining []string
		for _, kw := range criteria.Keywords {
			if containsTerm(title, kw) {
				b.TitleKeywords = append(b.TitleKeywords, kw)
			} else {
				remaining = append(remaining, kw)
			}
		}
		b.TitleScore = s.weights.Title * len(b.TitleKeywords) / len(criteria.Keywords)

		if len(remaining) == 0 {
			for _, kw := range criteria.Keywords {
				if containsTerm(description, kw) {
					b.DescriptionKeywords = append(b.DescriptionKeywords, kw)
				}
			}
			if len(b.DescriptionKeywords) > 0 {
				b.DescriptionScore = s.weights.Description
			}
		} else {
			for _, kw := range remaining {
				if containsTerm(description, kw) {
					b.DescriptionKeywords = append(b.DescriptionKeywords, kw)
				}
			}
			b.DescriptionScore = s.weights.Description * len(b.DescriptionKeywords) / len(remaining)
		}
	}

	location := normalize(job.Location)
	for _, loc := range criteria.Locations {
		if containsTerm(location, loc) {
			b.LocationMatched = true
			b.LocationValue = loc
			b.LocationScore = s.weights.Location
			break
		}
	}

	if salaryOverlaps(job, criteria) {
		b.SalaryInRange = true
		b.SalaryScore = s.weights.Salary
	}

	return b.TitleScore + b.DescriptionScore + b.LocationScore + b.SalaryScore, b
}

// salaryOverlaps reports whether the job's annual range intersects the
// criteria's. No preference on the criteria is an automatic match; no salary
// data on the job (with a preference present) is a miss.
func salaryOverlaps(job model.Job, criteria model.SearchCriteria) bool {
	if criteria.SalaryMin == nil && criteria.SalaryMax == nil {
		return true
	}
	if job.SalaryAnnualMin == nil && job.SalaryAnnualMax == nil {
		return false
	}

	// The parser emits min=max for single figures, but tolerate one-sided
	// rows: the present bound stands in for the missing one.
	jobMin, jobMax := oneSided(job.SalaryAnnualMin, job.SalaryAnnualMax)

	wantMin, wantMax := 0, int(^uint(0)>>1)
	if criteria.SalaryMin != nil {
		wantMin = *criteria.SalaryMin
	}
	if criteria.SalaryMax != nil {
		wantMax = *criteria.SalaryMax
	}
	return jobMin <= wantMax && wantMin <= jobMax
}

func oneSided(min, max *int) (int, int) {
	switch {
	case min != nil && max != nil:
		return *min, *max
	case min != nil:
		return *min, *min
	default:
		return *max, *max
	}
}
