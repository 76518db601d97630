package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"jobscout/internal/model"
)

// Memory is an in-memory store with the same semantics as Postgres,
// including URL/fingerprint uniqueness on insert. It backs tests and
// --dry-run orchestration.
type Memory struct {
	mu       sync.Mutex
	nextID   int64
	jobs     map[int64]*model.Job
	criteria []model.SearchCriteria
	matches  map[[2]int64]*model.MatchResult
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID:  1,
		jobs:    map[int64]*model.Job{},
		matches: map[[2]int64]*model.MatchResult{},
	}
}

// SeedCriteria registers criteria for an owner (test/dev helper — Postgres
// criteria rows are written by the account collaborator, not this core).
func (m *Memory) SeedCriteria(c model.SearchCriteria) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.criteria) + 1)
	m.criteria = append(m.criteria, c)
}

func (m *Memory) FindJobByURL(_ context.Context, url string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.URL == url {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindJobByFingerprint(_ context.Context, fp string) (*model.Job, error) {
	if fp == "" {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *model.Job
	for _, j := range m.jobs {
		if j.Fingerprint == fp && (found == nil || j.ID < found.ID) {
			found = j
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (m *Memory) InsertJob(_ context.Context, job *model.Job) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.URL == job.URL || (job.Fingerprint != "" && j.Fingerprint == job.Fingerprint) {
			return false, nil
		}
	}
	job.ID = m.nextID
	m.nextID++
	job.Active = true
	cp := *job
	m.jobs[job.ID] = &cp
	return true, nil
}

func (m *Memory) RefreshJobSeen(_ context.Context, id int64, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.LastSeen = seenAt
		j.Active = true
	}
	return nil
}

func (m *Memory) MarkStale(_ context.Context, cutoff time.Time, source string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, j := range m.jobs {
		if !j.Active || !j.LastSeen.Before(cutoff) {
			continue
		}
		if source != "" && j.Source != source {
			continue
		}
		j.Active = false
		n++
	}
	return n, nil
}

func (m *Memory) JobsMissingFingerprint(_ context.Context) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Job
	for _, j := range m.jobs {
		if j.Fingerprint == "" {
			out = append(out, *j)
		}
	}
	sortJobs(out)
	return out, nil
}

func (m *Memory) SetJobFingerprint(_ context.Context, id int64, fp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Fingerprint = fp
	}
	return nil
}

func (m *Memory) ListJobs(_ context.Context) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	sortJobs(out)
	return out, nil
}

func (m *Memory) JobStats(_ context.Context) (*model.JobStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &model.JobStats{BySource: map[string]model.SourceStats{}}
	for _, j := range m.jobs {
		s := stats.BySource[j.Source]
		if j.Active {
			s.Active++
			stats.Active++
		} else {
			s.Inactive++
			stats.Inactive++
		}
		stats.BySource[j.Source] = s
		stats.Total++
	}
	return stats, nil
}

func (m *Memory) LatestCriteria(_ context.Context, ownerID int64) (*model.SearchCriteria, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.SearchCriteria
	for i := range m.criteria {
		c := &m.criteria[i]
		if c.OwnerID != ownerID {
			continue
		}
		if latest == nil || c.UpdatedAt.After(latest.UpdatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *Memory) FindMatch(_ context.Context, ownerID, jobID int64) (*model.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.matches[[2]int64{ownerID, jobID}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *Memory) UpsertMatch(_ context.Context, r *model.MatchResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{r.OwnerID, r.JobID}
	_, existed := m.matches[key]
	cp := *r
	m.matches[key] = &cp
	return !existed, nil
}

func sortJobs(jobs []model.Job) {
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
}
