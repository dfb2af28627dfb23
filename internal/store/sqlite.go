// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides experiment persistence with automatic schema creation

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Timestamp formats used for TEXT columns. Experiment dates carry day
// resolution; created/updated stamps are full RFC3339.
const dateFormat = "2006-01-02"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
//
// Deletes are by primary key and do NOT cascade: removing a synthesis leaves
// its reactions in place, and removing a reaction leaves its result. This
// mirrors the behavior the lab depends on (old trial data stays queryable
// after a catalyst entry is cleaned up), so no FK ON DELETE clauses here.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

		CREATE TABLE IF NOT EXISTS synthesis (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			date TEXT NOT NULL,
			name TEXT NOT NULL,
			memo TEXT,
			amount REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,

			CHECK (amount >= 0)
		);

		CREATE INDEX IF NOT EXISTS idx_synthesis_owner ON synthesis(owner_id);

		CREATE TABLE IF NOT EXISTS reaction (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			synthesis_id TEXT NOT NULL,
			date TEXT NOT NULL,
			temperature REAL NOT NULL DEFAULT 0,
			catalyst_amount REAL NOT NULL DEFAULT 0,
			memo TEXT,
			created_at TEXT NOT NULL,

			CHECK (temperature >= 0),
			CHECK (catalyst_amount >= 0)
		);

		CREATE INDEX IF NOT EXISTS idx_reaction_owner ON reaction(owner_id);
		CREATE INDEX IF NOT EXISTS idx_reaction_synthesis ON reaction(synthesis_id);

		CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			reaction_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			graph BLOB NOT NULL,
			average_dodh REAL NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_results_reaction ON results(reaction_id);
		CREATE INDEX IF NOT EXISTS idx_results_owner ON results(owner_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	// Migration: older databases stored the catalyst mass per reaction under
	// 'amount'; it was renamed to 'catalyst_amount' to stop confusion with the
	// synthesis amount column.
	migrations := []struct {
		table  string
		check  string // Query to check if migration is needed
		apply  string // Query to apply the migration
		column string // Column name for logging
	}{
		{
			table:  "reaction",
			check:  `SELECT 1 FROM pragma_table_info('reaction') WHERE name = 'catalyst_amount'`,
			apply:  `ALTER TABLE reaction ADD COLUMN catalyst_amount REAL NOT NULL DEFAULT 0`,
			column: "catalyst_amount",
		},
		{
			table:  "results",
			check:  `SELECT 1 FROM pragma_table_info('results') WHERE name = 'updated_at'`,
			apply:  `ALTER TABLE results ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`,
			column: "updated_at",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			// Column already exists, skip
			continue
		}
		// Column doesn't exist, apply migration
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to %s: %w", m.column, m.table, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", m.table)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "unique constraint"))
}

// nullString returns nil for empty strings, otherwise the string itself
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
