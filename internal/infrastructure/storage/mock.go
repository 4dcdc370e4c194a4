package storage

import (
	"sort"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	runs    map[string]*ClearingRun
	results map[string][]*EntityResult // keyed by run_id
	nextID  int64

	// Hooks for test assertions
	SaveRunCalled          bool
	LastSavedRun           *ClearingRun
	SaveEntityResultCalled bool
	LastSavedResult        *EntityResult

	// Error injection for testing error paths
	SaveRunErr          error
	GetRunErr           error
	SaveEntityResultErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:    make(map[string]*ClearingRun),
		results: make(map[string][]*EntityResult),
		nextID:  1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveRun saves a run to the in-memory map
func (m *MockRepository) SaveRun(run *ClearingRun) error {
	m.SaveRunCalled = true
	m.LastSavedRun = run
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	// Copy to avoid test mutations
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

// GetRun retrieves a run from the in-memory map
func (m *MockRepository) GetRun(id string) (*ClearingRun, error) {
	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return run, nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(limit int) ([]*ClearingRun, error) {
	runs := make([]*ClearingRun, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetStats aggregates over the stored runs
func (m *MockRepository) GetStats() (*Stats, error) {
	stats := &Stats{}
	for _, run := range m.runs {
		stats.TotalRuns++
		switch run.Status {
		case RunStatusCompleted:
			stats.CompletedRuns++
		case RunStatusFailed:
			stats.FailedRuns++
		}
		stats.TotalItemsMatched += run.MatchedCount
		stats.TotalItemsPosted += run.PostedCount
		if run.StartedAt.After(stats.LastRunAt) {
			stats.LastRunAt = run.StartedAt
		}
	}
	return stats, nil
}

// SaveEntityResult appends an entity outcome
func (m *MockRepository) SaveEntityResult(result *EntityResult) error {
	m.SaveEntityResultCalled = true
	m.LastSavedResult = result
	if m.SaveEntityResultErr != nil {
		return m.SaveEntityResultErr
	}
	copied := *result
	copied.ID = m.nextID
	m.nextID++
	result.ID = copied.ID
	m.results[result.RunID] = append(m.results[result.RunID], &copied)
	return nil
}

// ListEntityResults returns the entity outcomes of a run ordered by entity
func (m *MockRepository) ListEntityResults(runID string) ([]*EntityResult, error) {
	results := append([]*EntityResult(nil), m.results[runID]...)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Entity < results[j].Entity
	})
	return results, nil
}
