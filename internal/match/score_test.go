package match

import (
	"testing"

	"jobscout/internal/model"
)

func intp(v int) *int { return &v }

func designerJob() model.Job {
	return model.Job{
		ID:              1,
		Title:           "UXデザイナー（リモート可）",
		Company:         "株式会社サンプル",
		Description:     "Figmaを使ったプロダクトデザイン。UXリサーチ経験歓迎。",
		Location:        "東京都渋谷区",
		SalaryAnnualMin: intp(5_000_000),
		SalaryAnnualMax: intp(7_000_000),
		Source:          "doda",
	}
}

func designerCriteria() model.SearchCriteria {
	return model.SearchCriteria{
		OwnerID:   1,
		Keywords:  []string{"UX", "デザイナー"},
		Locations: []string{"東京"},
		SalaryMin: intp(4_500_000),
	}
}

// ── Component signals ──────────────────────────────────────────────────────

func TestScore_FullMatch(t *testing.T) {
	scorer := NewScorer(DefaultWeights)
	score, b := scorer.Score(designerJob(), designerCriteria())

	// Both keywords in the title, "UX" also in the description (bonus),
	// location and salary both match: 40 + 30 + 15 + 15.
	if score != 100 {
		t.Fatalf("score = %d, want 100 (breakdown %+v)", score, b)
	}
	if len(b.TitleKeywords) != 2 || !b.LocationMatched || !b.SalaryInRange {
		t.Errorf("breakdown = %+v", b)
	}
}

func TestScore_PartialTitleCoverage(t *testing.T) {
	scorer := NewScorer(DefaultWeights)
	job := designerJob()
	job.Title = "グラフィックデザイナー"
	job.Description = "ポスター制作。"

	score, b := scorer.Score(job, designerCriteria())
	// 1 of 2 keywords in title (20), "UX" absent everywhere (0),
	// location 15, salary 15.
	if score != 50 {
		t.Errorf("score = %d, want 50 (breakdown %+v)", score, b)
	}
	if b.TitleScore != 20 || b.DescriptionScore != 0 {
		t.Errorf("title/description = %d/%d, want 20/0", b.TitleScore, b.DescriptionScore)
	}
}

func TestScore_DescriptionCreditsRemainingKeywords(t *testing.T) {
	scorer := NewScorer(DefaultWeights)
	job := designerJob()
	job.Title = "デザイナー募集"
	job.Description = "UXリサーチからUIデザインまで。"

	_, b := scorer.Score(job, designerCriteria())
	// "UX" missed the title but appears in the description: full remaining
	// fraction (1/1) of the description weight.
	if b.DescriptionScore != 30 {
		t.Errorf("description score = %d, want 30 (breakdown %+v)", b.DescriptionScore, b)
	}
}

func TestScore_TitleBonusRequiresDescriptionAppearance(t *testing.T) {
	scorer := NewScorer(DefaultWeights)
	job := designerJob()
	job.Description = "詳細は面談にて。"

	_, b := scorer.Score(job, designerCriteria())
	// Every keyword credited via the title, none repeated in the
	// description: no bonus.
	if b.DescriptionScore != 0 {
		t.Errorf("description score = %d, want 0 without bonus", b.DescriptionScore)
	}
}

func TestScore_LocationIsBinary(t *testing.T) {
	scorer := NewScorer(DefaultWeights)
	job := designerJob()
	job.Location = "大阪府大阪市"

	_, b := scorer.Score(job, designerCriteria())
	if b.LocationMatched || b.LocationScore != 0 {
		t.Errorf("location breakdown = %+v, want no match", b)
	}
}

func TestScore_SalaryOverlap(t *testing.T) {
	scorer := NewScorer(DefaultWeights)

	cases := []struct {
		name     string
		jobMin   *int
		jobMax   *int
		wantMin  *int
		wantMax  *int
		expected bool
	}{
		{"ranges overlap", intp(5_000_000), intp(7_000_000), intp(6_000_000), nil, true},
		{"job below preference", intp(3_000_000), intp(4_000_000), intp(5_000_000), nil, false},
		{"job above capped preference", intp(9_000_000), intp(12_000_000), nil, intp(8_000_000), false},
		{"no preference always matches", nil, nil, nil, nil, true},
		{"no job salary with preference misses", nil, nil, intp(5_000_000), nil, false},
		{"single figure inside range", intp(6_000_000), intp(6_000_000), intp(5_000_000), intp(7_000_000), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := designerJob()
			job.SalaryAnnualMin, job.SalaryAnnualMax = tc.jobMin, tc.jobMax
			criteria := designerCriteria()
			criteria.SalaryMin, criteria.SalaryMax = tc.wantMin, tc.wantMax

			_, b := scorer.Score(job, criteria)
			if b.SalaryInRange != tc.expected {
				t.Errorf("salary in range = %v, want %v", b.SalaryInRange, tc.expected)
			}
		})
	}
}

// ── Missing fields and exclusions ──────────────────────────────────────────

func TestScore_EmptyCriteriaNeverErrors(t *testing.T) {
	scorer := NewScorer(DefaultWeights)
	score, b := scorer.Score(designerJob(), model.SearchCriteria{})
	// No keywords (0), no locations (0), no salary preference (automatic 15).
	if score != 15 {
		t.Errorf("score = %d, want 15 (breakdown %+v)", score, b)
	}
}

func TestScore_BoundedForAnyInput(t *testing.T) {
	scorer := NewScorer(DefaultWeights)
	jobs := []model.Job{{}, designerJob()}
	criterias := []model.SearchCriteria{{}, designerCriteria()}
	for _, job := range jobs {
		for _, criteria := range criterias {
			score, _ := scorer.Score(job, criteria)
			if score < 0 || score > 100 {
				t.Errorf("score %d out of [0,100]", score)
			}
		}
	}
}

func TestScore_RedFlagExcludes(t *testing.T) {
	scorer := NewScorer(DefaultWeights)
	criteria := designerCriteria()
	criteria.RedFlags = []string{"ノルマ"}

	job := designerJob()
	job.Description += " 営業ノルマあり。"

	score, b := scorer.Score(job, criteria)
	if score != 0 || !b.Excluded {
		t.Errorf("score = %d excluded = %v, want 0/true", score, b.Excluded)
	}
}

func TestNewScorer_InvalidWeightsFallBack(t *testing.T) {
	scorer := NewScorer(Weights{Title: 90, Description: 30, Location: 15, Salary: 15})
	score, _ := scorer.Score(designerJob(), designerCriteria())
	if score != 100 {
		t.Errorf("score = %d, want 100 under default weights", score)
	}
}
