package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const schemaTriageStatus = `
CREATE TABLE IF NOT EXISTS triage_status (
    lineage_key TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaCommentLog = `
CREATE TABLE IF NOT EXISTS comment_log (
    id TEXT PRIMARY KEY,
    lineage_key TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    body TEXT NOT NULL
);
`

const schemaCommentLogIndex = `
CREATE INDEX IF NOT EXISTS idx_comment_log_lineage ON comment_log (lineage_key, created_at);
`

const schemaStatusLog = `
CREATE TABLE IF NOT EXISTS status_log (
    id TEXT PRIMARY KEY,
    lineage_key TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL,
    reason TEXT NOT NULL
);
`

const schemaStatusLogIndex = `
CREATE INDEX IF NOT EXISTS idx_status_log_lineage ON status_log (lineage_key, created_at);
`

const schemaSources = `
CREATE TABLE IF NOT EXISTS sources (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    base_url TEXT NOT NULL,
    username TEXT NOT NULL,
    password TEXT NOT NULL,
    enabled BOOLEAN NOT NULL,
    hour_offset REAL NOT NULL,
    page_size INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaTriageStatus,
		schemaCommentLog,
		schemaCommentLogIndex,
		schemaStatusLog,
		schemaStatusLogIndex,
		schemaSources,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
