package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_entity_results_message",
		Up:      migration002AddEntityResultsMessage,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// migration001InitialSchema creates the run and entity result tables
func migration001InitialSchema(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS clearing_runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			status TEXT NOT NULL,
			dry_run BOOLEAN DEFAULT 0,
			entity_count INTEGER DEFAULT 0,
			item_count INTEGER DEFAULT 0,
			matched_count INTEGER DEFAULT 0,
			posted_count INTEGER DEFAULT 0,
			failed_count INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS entity_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			entity TEXT NOT NULL,
			country TEXT,
			exported BOOLEAN DEFAULT 0,
			cleared BOOLEAN DEFAULT 0,
			no_open_items BOOLEAN DEFAULT 0,
			item_count INTEGER DEFAULT 0,
			matched_count INTEGER DEFAULT 0,
			excluded_count INTEGER DEFAULT 0,
			posted_count INTEGER DEFAULT 0,
			failed_count INTEGER DEFAULT 0,
			FOREIGN KEY (run_id) REFERENCES clearing_runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON clearing_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_entity_results_run ON entity_results(run_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// migration002AddEntityResultsMessage adds the free-text outcome column
func migration002AddEntityResultsMessage(db *sql.Tx) error {
	_, err := db.Exec(`ALTER TABLE entity_results ADD COLUMN message TEXT DEFAULT ''`)
	return err
}
