package repository

import (
	"context"
	"database/sql"

	"alarmdesk"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*alarmdesk.User, error)
}

// StatusRepo persists the triage status per lineage key. Get returns the
// empty status when the key has never been stored; callers apply the
// not_handled default.
type StatusRepo interface {
	Save(ctx context.Context, key string, status alarmdesk.Status) error
	Get(ctx context.Context, key string) (alarmdesk.Status, error)
	All(ctx context.Context) (map[string]alarmdesk.Status, error)
}

// LogRepo owns the two append-only audit logs. Entries are never updated or
// deleted.
type LogRepo interface {
	AppendComment(ctx context.Context, key string, e alarmdesk.CommentEntry) error
	AppendStatusChange(ctx context.Context, key string, e alarmdesk.StatusChangeEntry) error
	Comments(ctx context.Context, key string) ([]alarmdesk.CommentEntry, error)
	StatusChanges(ctx context.Context, key string) ([]alarmdesk.StatusChangeEntry, error)
}

// SourceRepo persists source descriptors. Create and Update fill generated
// fields (ID, timestamps) in place.
type SourceRepo interface {
	Create(ctx context.Context, s *alarmdesk.Source) error
	Update(ctx context.Context, s *alarmdesk.Source) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*alarmdesk.Source, error)
	List(ctx context.Context, enabledOnly bool) ([]alarmdesk.Source, error)
}

type Repository struct {
	Status  StatusRepo
	Logs    LogRepo
	Sources SourceRepo
	Auth    Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Status:  NewStatusSQLite(db),
		Logs:    NewLogSQLite(db),
		Sources: NewSourceSQLite(db),
		Auth:    NewUserRepository(db),
	}
}
