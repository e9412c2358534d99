package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"alarmdesk"

	"github.com/google/uuid"
)

type SourceSQLite struct {
	db *sql.DB
}

func NewSourceSQLite(db *sql.DB) *SourceSQLite {
	return &SourceSQLite{db: db}
}

var _ SourceRepo = (*SourceSQLite)(nil)

const (
	insertSourceSQL = `
		INSERT INTO sources (id, label, base_url, username, password, enabled, hour_offset, page_size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	updateSourceSQL = `
		UPDATE sources
		SET label=?, base_url=?, username=?, password=?, enabled=?, hour_offset=?, page_size=?, updated_at=?
		WHERE id=?
	`

	deleteSourceSQL = `DELETE FROM sources WHERE id=?`

	selectSourceSQL = `
		SELECT id, label, base_url, username, password, enabled, hour_offset, page_size, created_at, updated_at
		FROM sources WHERE id=?
	`

	selectSourcesSQL = `
		SELECT id, label, base_url, username, password, enabled, hour_offset, page_size, created_at, updated_at
		FROM sources
	`
)

// Create inserts a new source descriptor. Missing ID and timestamps are
// filled in on s.
func (r *SourceSQLite) Create(ctx context.Context, s *alarmdesk.Source) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, insertSourceSQL,
		s.ID, s.Label, s.BaseURL, s.Username, s.Password,
		s.Enabled, s.HourOffset, s.PageSize, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert source %q: %w", s.Label, err)
	}
	return nil
}

// Update rewrites every editable column of an existing descriptor and
// refreshes UpdatedAt on s.
func (r *SourceSQLite) Update(ctx context.Context, s *alarmdesk.Source) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, updateSourceSQL,
		s.Label, s.BaseURL, s.Username, s.Password,
		s.Enabled, s.HourOffset, s.PageSize, s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update source %q: %w", s.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for source %q: %w", s.ID, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SourceSQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteSourceSQL, id)
	if err != nil {
		return fmt.Errorf("delete source %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for source %q: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID fetches one descriptor. Returns (nil, nil) if not found.
func (r *SourceSQLite) GetByID(ctx context.Context, id string) (*alarmdesk.Source, error) {
	var s alarmdesk.Source
	err := r.db.QueryRowContext(ctx, selectSourceSQL, id).Scan(
		&s.ID, &s.Label, &s.BaseURL, &s.Username, &s.Password,
		&s.Enabled, &s.HourOffset, &s.PageSize, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select source %q: %w", id, err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// List returns descriptors ordered by label, optionally only enabled ones.
func (r *SourceSQLite) List(ctx context.Context, enabledOnly bool) ([]alarmdesk.Source, error) {
	q := selectSourcesSQL
	var args []any
	if enabledOnly {
		q += " WHERE enabled = ?"
		args = append(args, true)
	}
	q += " ORDER BY label ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]alarmdesk.Source, 0, 8)
	for rows.Next() {
		var s alarmdesk.Source
		if err := rows.Scan(
			&s.ID, &s.Label, &s.BaseURL, &s.Username, &s.Password,
			&s.Enabled, &s.HourOffset, &s.PageSize, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		s.CreatedAt = s.CreatedAt.UTC()
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
