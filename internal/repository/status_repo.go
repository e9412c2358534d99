package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"alarmdesk"
)

type StatusSQLite struct {
	db *sql.DB
}

func NewStatusSQLite(db *sql.DB) *StatusSQLite {
	return &StatusSQLite{db: db}
}

var _ StatusRepo = (*StatusSQLite)(nil)

const (
	upsertStatusSQL = `
		INSERT INTO triage_status (lineage_key, status, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(lineage_key) DO UPDATE SET
			status=excluded.status,
			updated_at=excluded.updated_at
	`

	selectStatusSQL = `
		SELECT status FROM triage_status WHERE lineage_key=?
	`

	selectAllStatusSQL = `
		SELECT lineage_key, status FROM triage_status
	`
)

// Save upserts the status for a lineage key.
func (r *StatusSQLite) Save(ctx context.Context, key string, status alarmdesk.Status) error {
	_, err := r.db.ExecContext(ctx, upsertStatusSQL, key, string(status), time.Now().UTC())
	return err
}

// Get returns the stored status, or "" if the key was never persisted.
func (r *StatusSQLite) Get(ctx context.Context, key string) (alarmdesk.Status, error) {
	var s string
	err := r.db.QueryRowContext(ctx, selectStatusSQL, key).Scan(&s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil // never triaged yet
		}
		return "", err
	}
	return alarmdesk.Status(s), nil
}

// All loads every stored status keyed by lineage key. The table stays small
// (one row per alarm point ever seen), so the bulk load once per cycle is
// cheaper than per-lineage lookups.
func (r *StatusSQLite) All(ctx context.Context) (map[string]alarmdesk.Status, error) {
	rows, err := r.db.QueryContext(ctx, selectAllStatusSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]alarmdesk.Status, 64)
	for rows.Next() {
		var key, s string
		if err := rows.Scan(&key, &s); err != nil {
			return nil, err
		}
		out[key] = alarmdesk.Status(s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
