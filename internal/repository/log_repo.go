package repository

import (
	"context"
	"database/sql"
	"time"

	"alarmdesk"

	"github.com/google/uuid"
)

// sqliteTimestamp is the TIMESTAMP text format the log tables store.
const sqliteTimestamp = "2006-01-02 15:04:05"

type LogSQLite struct {
	db *sql.DB
}

func NewLogSQLite(db *sql.DB) *LogSQLite { return &LogSQLite{db: db} }

var _ LogRepo = (*LogSQLite)(nil)

const (
	insertCommentSQL = `
		INSERT INTO comment_log (id, lineage_key, created_at, body)
		VALUES (?, ?, ?, ?)
	`

	selectCommentsSQL = `
		SELECT id, created_at, body FROM comment_log
		WHERE lineage_key = ? ORDER BY created_at ASC
	`

	insertStatusChangeSQL = `
		INSERT INTO status_log (id, lineage_key, created_at, status, reason)
		VALUES (?, ?, ?, ?, ?)
	`

	selectStatusChangesSQL = `
		SELECT id, created_at, status, reason FROM status_log
		WHERE lineage_key = ? ORDER BY created_at ASC
	`
)

// AppendComment inserts a comment entry. If ID or CreatedAt are empty,
// they’re set.
func (r *LogSQLite) AppendComment(ctx context.Context, key string, e alarmdesk.CommentEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	} else {
		e.CreatedAt = e.CreatedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertCommentSQL,
		e.ID,
		key,
		e.CreatedAt.Format(sqliteTimestamp),
		e.Body,
	)
	return err
}

// AppendStatusChange inserts a status-change entry. If ID or CreatedAt are
// empty, they’re set.
func (r *LogSQLite) AppendStatusChange(ctx context.Context, key string, e alarmdesk.StatusChangeEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	} else {
		e.CreatedAt = e.CreatedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertStatusChangeSQL,
		e.ID,
		key,
		e.CreatedAt.Format(sqliteTimestamp),
		string(e.Status),
		string(e.Reason),
	)
	return err
}

// Comments returns the comment log for a lineage key, oldest first.
func (r *LogSQLite) Comments(ctx context.Context, key string) ([]alarmdesk.CommentEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectCommentsSQL, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]alarmdesk.CommentEntry, 0, 16)
	for rows.Next() {
		var e alarmdesk.CommentEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Body); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusChanges returns the status-change log for a lineage key, oldest first.
func (r *LogSQLite) StatusChanges(ctx context.Context, key string) ([]alarmdesk.StatusChangeEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectStatusChangesSQL, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]alarmdesk.StatusChangeEntry, 0, 16)
	for rows.Next() {
		var e alarmdesk.StatusChangeEntry
		var status, reason string
		if err := rows.Scan(&e.ID, &e.CreatedAt, &status, &reason); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		e.Status = alarmdesk.Status(status)
		e.Reason = alarmdesk.ChangeReason(reason)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
