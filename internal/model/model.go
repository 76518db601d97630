// Package model defines the canonical data structures shared by the
// extraction, ingestion and matching pipeline.
package model

import "time"

// RawDocument is one page handed to an extraction adapter by the acquisition
// layer: the page body plus the source it came from and the URL it was
// fetched from (used to resolve relative links).
type RawDocument struct {
	Source string
	URL    string
	HTML   string
}

// Job is the canonical, source-independent representation of one posting.
// Only Title, Company, URL and Source are mandatory at the extraction
// boundary; everything else is best-effort.
type Job struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Description     string     `json:"description,omitempty"`
	Location        string     `json:"location,omitempty"`
	SalaryText      string     `json:"salaryText,omitempty"`
	SalaryAnnualMin *int       `json:"salaryAnnualMin,omitempty"`
	SalaryAnnualMax *int       `json:"salaryAnnualMax,omitempty"`
	URL             string     `json:"url"`
	Source          string     `json:"source"`
	Fingerprint     string     `json:"fingerprint,omitempty"`
	FirstSeen       time.Time  `json:"firstSeen"`
	LastSeen        time.Time  `json:"lastSeen"`
	Active          bool       `json:"active"`
}

// SearchCriteria is one user's search profile. The matcher always reads the
// owner's most recently updated criteria.
type SearchCriteria struct {
	ID        int64
	OwnerID   int64
	Keywords  []string
	Locations []string
	SalaryMin *int
	SalaryMax *int
	// RemotePreference is tri-state: nil means no preference.
	RemotePreference *bool
	// RedFlags are exclusion terms — any match in title+company+description
	// zeroes the posting's score.
	RedFlags  []string
	UpdatedAt time.Time
}

// MatchBreakdown explains how a score was assembled, component by component.
type MatchBreakdown struct {
	TitleKeywords       []string `json:"titleKeywords"`
	DescriptionKeywords []string `json:"descriptionKeywords"`
	LocationMatched     bool     `json:"locationMatched"`
	LocationValue       string   `json:"locationValue,omitempty"`
	SalaryInRange       bool     `json:"salaryInRange"`
	Excluded            bool     `json:"excluded,omitempty"`

	TitleScore       int `json:"titleScore"`
	DescriptionScore int `json:"descriptionScore"`
	LocationScore    int `json:"locationScore"`
	SalaryScore      int `json:"salaryScore"`
}

// MatchResult is the persisted outcome of scoring one job against one
// owner's criteria. At most one row exists per (owner, job) pair.
type MatchResult struct {
	OwnerID    int64          `json:"ownerId"`
	JobID      int64          `json:"jobId"`
	Score      int            `json:"score"`
	Breakdown  MatchBreakdown `json:"breakdown"`
	ComputedAt time.Time      `json:"computedAt"`
}

// SourceStats is the active/inactive split for a single source.
type SourceStats struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// JobStats summarises stored jobs, overall and per source.
type JobStats struct {
	Total    int                    `json:"total"`
	Active   int                    `json:"active"`
	Inactive int                    `json:"inactive"`
	BySource map[string]SourceStats `json:"bySource"`
}
