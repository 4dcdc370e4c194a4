package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// RunResponse represents a clearing run in API responses.
type RunResponse struct {
	ID           string `json:"id"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty"`
	Status       string `json:"status"`
	DryRun       bool   `json:"dry_run"`
	EntityCount  int    `json:"entity_count"`
	ItemCount    int    `json:"item_count"`
	MatchedCount int    `json:"matched_count"`
	PostedCount  int    `json:"posted_count"`
	FailedCount  int    `json:"failed_count"`
}

// RunListResponse is returned when listing clearing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// EntityResultResponse represents one entity's outcome within a run.
type EntityResultResponse struct {
	Entity        string `json:"entity"`
	Country       string `json:"country"`
	Exported      bool   `json:"exported"`
	Cleared       bool   `json:"cleared"`
	NoOpenItems   bool   `json:"no_open_items"`
	ItemCount     int    `json:"item_count"`
	MatchedCount  int    `json:"matched_count"`
	ExcludedCount int    `json:"excluded_count"`
	PostedCount   int    `json:"posted_count"`
	FailedCount   int    `json:"failed_count"`
	Message       string `json:"message,omitempty"`
}

// EntityResultListResponse is returned when listing a run's entity outcomes.
type EntityResultListResponse struct {
	RunID   string                 `json:"run_id"`
	Results []EntityResultResponse `json:"results"`
	Count   int                    `json:"count"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	TotalRuns         int    `json:"total_runs"`
	CompletedRuns     int    `json:"completed_runs"`
	FailedRuns        int    `json:"failed_runs"`
	TotalItemsMatched int    `json:"total_items_matched"`
	TotalItemsPosted  int    `json:"total_items_posted"`
	LastRunAt         string `json:"last_run_at,omitempty"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Service:   "clearing-results-api",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
