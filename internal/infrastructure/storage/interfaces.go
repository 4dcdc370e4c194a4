package storage

// Repository defines the complete run-history storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	RunRepository
	EntityResultRepository
	Close() error
}

// RunRepository handles clearing run records
type RunRepository interface {
	// SaveRun inserts or updates a clearing run
	SaveRun(run *ClearingRun) error

	// GetRun retrieves a run by id
	GetRun(id string) (*ClearingRun, error)

	// ListRuns returns the most recent runs, newest first
	ListRuns(limit int) ([]*ClearingRun, error)

	// GetStats returns aggregate statistics
	GetStats() (*Stats, error)
}

// EntityResultRepository handles per-entity run outcomes
type EntityResultRepository interface {
	// SaveEntityResult inserts one entity's outcome for a run
	SaveEntityResult(result *EntityResult) error

	// ListEntityResults returns all entity outcomes of a run
	ListEntityResults(runID string) ([]*EntityResult, error)
}
