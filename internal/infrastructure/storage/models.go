package storage

import (
	"time"
)

// ClearingRun is one execution of the clearing pipeline.
type ClearingRun struct {
	ID           string    `json:"id"` // UUID
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       string    `json:"status"` // "completed", "failed"
	DryRun       bool      `json:"dry_run"`
	EntityCount  int       `json:"entity_count"`
	ItemCount    int       `json:"item_count"`
	MatchedCount int       `json:"matched_count"`
	PostedCount  int       `json:"posted_count"`
	FailedCount  int       `json:"failed_count"`
}

// Run statuses
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// EntityResult is the per-entity outcome of one clearing run.
type EntityResult struct {
	ID          int64  `json:"id"`
	RunID       string `json:"run_id"`
	Entity      string `json:"entity"`
	Country     string `json:"country"`
	Exported    bool   `json:"exported"`
	Cleared     bool   `json:"cleared"`
	NoOpenItems bool   `json:"no_open_items"`

	ItemCount     int    `json:"item_count"`
	MatchedCount  int    `json:"matched_count"`
	ExcludedCount int    `json:"excluded_count"`
	PostedCount   int    `json:"posted_count"`
	FailedCount   int    `json:"failed_count"`
	Message       string `json:"message,omitempty"`
}

// Stats holds aggregate run-history statistics.
type Stats struct {
	TotalRuns         int       `json:"total_runs"`
	CompletedRuns     int       `json:"completed_runs"`
	FailedRuns        int       `json:"failed_runs"`
	TotalItemsMatched int       `json:"total_items_matched"`
	TotalItemsPosted  int       `json:"total_items_posted"`
	LastRunAt         time.Time `json:"last_run_at"`
}
