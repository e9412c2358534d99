package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alarmdesk"
	"alarmdesk/internal/logger"
	"alarmdesk/internal/metrics"
	"alarmdesk/internal/repository"
)

var (
	ErrEmptyComment  = errors.New("comment text must not be empty")
	ErrInvalidStatus = errors.New("invalid triage status")
)

// applyTriage resolves one lineage's status for this cycle. Precedence,
// first match wins:
//
//  1. acknowledged or discarded representative forces completed
//  2. a flagged new occurrence forces not_handled
//  3. an explicit stored status is kept
//  4. the default not_handled
//
// reset reports whether rule 2 fired, which obliges audit entries.
func applyTriage(rep alarmdesk.Occurrence, flaggedNew bool, stored alarmdesk.Status) (status alarmdesk.Status, reset bool) {
	switch {
	case rep.Acknowledged || rep.Discarded:
		return alarmdesk.StatusCompleted, false
	case flaggedNew:
		return alarmdesk.StatusNotHandled, true
	case stored != "":
		return stored, false
	default:
		return alarmdesk.StatusNotHandled, false
	}
}

func autoResetComment(count int) string {
	return fmt.Sprintf("Alarm fired again (%d occurrences in the current window); status reset automatically", count)
}

// representativeSource gives user actions access to the latest snapshot so
// mirror notes can reference the concrete alarm that was triaged.
type representativeSource interface {
	Representative(key alarmdesk.LineageKey) (alarmdesk.Occurrence, bool)
}

// noteMirror is the slice of Notifier the triage service needs.
type noteMirror interface {
	NotifyAsync(key alarmdesk.LineageKey, rep alarmdesk.Occurrence, status alarmdesk.Status, comment string)
}

type TriageService struct {
	status repository.StatusRepo
	logs   repository.LogRepo
	reps   representativeSource
	notify noteMirror
	log    *logger.Logger
}

var _ Triage = (*TriageService)(nil)

func NewTriageService(repos *repository.Repository, reps representativeSource, notify *Notifier, log *logger.Logger) *TriageService {
	return &TriageService{
		status: repos.Status,
		logs:   repos.Logs,
		reps:   reps,
		notify: notify,
		log:    log,
	}
}

// SubmitComment appends a comment entry and promotes the lineage to handled
// unless it is already completed. The promotion itself writes no
// status-change entry; the comment is the audit trail.
func (s *TriageService) SubmitComment(ctx context.Context, key alarmdesk.LineageKey, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyComment
	}

	ks := key.String()
	if err := s.logs.AppendComment(ctx, ks, alarmdesk.CommentEntry{Body: text}); err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	metrics.IncAuditEntry("comment")

	current, err := s.status.Get(ctx, ks)
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}
	final := current
	if current != alarmdesk.StatusCompleted && current != alarmdesk.StatusHandled {
		final = alarmdesk.StatusHandled
		if err := s.status.Save(ctx, ks, final); err != nil {
			return fmt.Errorf("save status: %w", err)
		}
	}

	s.mirror(key, final, text)
	return nil
}

// SetStatus records an explicit user decision and appends a status-change
// entry with the user reason.
func (s *TriageService) SetStatus(ctx context.Context, key alarmdesk.LineageKey, status alarmdesk.Status) error {
	if _, err := alarmdesk.ParseStatus(string(status)); err != nil {
		return ErrInvalidStatus
	}

	ks := key.String()
	if err := s.status.Save(ctx, ks, status); err != nil {
		return fmt.Errorf("save status: %w", err)
	}
	entry := alarmdesk.StatusChangeEntry{Status: status, Reason: alarmdesk.ReasonUser}
	if err := s.logs.AppendStatusChange(ctx, ks, entry); err != nil {
		return fmt.Errorf("append status change: %w", err)
	}
	metrics.IncAuditEntry("status")

	s.mirror(key, status, "")
	return nil
}

// History returns the lineage's comments and status changes merged into one
// list, ascending by timestamp. Recomputed from the logs on every call.
func (s *TriageService) History(ctx context.Context, key alarmdesk.LineageKey) ([]alarmdesk.HistoryEntry, error) {
	ks := key.String()
	comments, err := s.logs.Comments(ctx, ks)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	changes, err := s.logs.StatusChanges(ctx, ks)
	if err != nil {
		return nil, fmt.Errorf("load status changes: %w", err)
	}
	return mergeHistory(comments, changes), nil
}

func (s *TriageService) mirror(key alarmdesk.LineageKey, status alarmdesk.Status, comment string) {
	rep, _ := s.reps.Representative(key)
	s.notify.NotifyAsync(key, rep, status, comment)
}
