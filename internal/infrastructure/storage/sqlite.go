package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for clearing run history.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun inserts or updates a clearing run
func (s *Storage) SaveRun(run *ClearingRun) error {
	query := `
	INSERT OR REPLACE INTO clearing_runs
	(id, started_at, finished_at, status, dry_run,
	 entity_count, item_count, matched_count, posted_count, failed_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.Status,
		run.DryRun,
		run.EntityCount,
		run.ItemCount,
		run.MatchedCount,
		run.PostedCount,
		run.FailedCount,
	)
	return err
}

// GetRun retrieves a run by id
func (s *Storage) GetRun(id string) (*ClearingRun, error) {
	query := `
	SELECT id, started_at, finished_at, status, dry_run,
	       entity_count, item_count, matched_count, posted_count, failed_count
	FROM clearing_runs WHERE id = ?
	`

	run := &ClearingRun{}
	err := s.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Status,
		&run.DryRun,
		&run.EntityCount,
		&run.ItemCount,
		&run.MatchedCount,
		&run.PostedCount,
		&run.FailedCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]*ClearingRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, started_at, finished_at, status, dry_run,
	       entity_count, item_count, matched_count, posted_count, failed_count
	FROM clearing_runs
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*ClearingRun
	for rows.Next() {
		run := &ClearingRun{}
		if err := rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Status,
			&run.DryRun,
			&run.EntityCount,
			&run.ItemCount,
			&run.MatchedCount,
			&run.PostedCount,
			&run.FailedCount,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate run-history statistics
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{}

	query := `
	SELECT
		COUNT(*) as total,
		COUNT(CASE WHEN status = 'completed' THEN 1 END) as completed,
		COUNT(CASE WHEN status = 'failed' THEN 1 END) as failed,
		COALESCE(SUM(matched_count), 0) as matched,
		COALESCE(SUM(posted_count), 0) as posted
	FROM clearing_runs
	`

	err := s.db.QueryRow(query).Scan(
		&stats.TotalRuns,
		&stats.CompletedRuns,
		&stats.FailedRuns,
		&stats.TotalItemsMatched,
		&stats.TotalItemsPosted,
	)
	if err != nil {
		return nil, err
	}

	// Aggregate expressions carry no column type, so the driver would hand
	// MAX(started_at) back as a string. Select the column itself instead
	// and let its TIMESTAMP declaration drive the time conversion.
	err = s.db.QueryRow(
		`SELECT started_at FROM clearing_runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&stats.LastRunAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return stats, nil
}

// SaveEntityResult inserts one entity's outcome for a run
func (s *Storage) SaveEntityResult(result *EntityResult) error {
	query := `
	INSERT INTO entity_results
	(run_id, entity, country, exported, cleared, no_open_items,
	 item_count, matched_count, excluded_count, posted_count, failed_count, message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		result.RunID,
		result.Entity,
		result.Country,
		result.Exported,
		result.Cleared,
		result.NoOpenItems,
		result.ItemCount,
		result.MatchedCount,
		result.ExcludedCount,
		result.PostedCount,
		result.FailedCount,
		result.Message,
	)
	if err != nil {
		return err
	}

	if id, err := res.LastInsertId(); err == nil {
		result.ID = id
	}
	return nil
}

// ListEntityResults returns all entity outcomes of a run
func (s *Storage) ListEntityResults(runID string) ([]*EntityResult, error) {
	query := `
	SELECT id, run_id, entity, country, exported, cleared, no_open_items,
	       item_count, matched_count, excluded_count, posted_count, failed_count, message
	FROM entity_results
	WHERE run_id = ?
	ORDER BY entity
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*EntityResult
	for rows.Next() {
		r := &EntityResult{}
		if err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.Entity,
			&r.Country,
			&r.Exported,
			&r.Cleared,
			&r.NoOpenItems,
			&r.ItemCount,
			&r.MatchedCount,
			&r.ExcludedCount,
			&r.PostedCount,
			&r.FailedCount,
			&r.Message,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
