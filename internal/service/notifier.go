package service

import (
	"context"
	"time"

	"alarmdesk"
	"alarmdesk/internal/logger"
	"alarmdesk/internal/metrics"
	"alarmdesk/internal/repository"
	"alarmdesk/internal/source"
)

// Notifier mirrors user triage outcomes back to the enabled sources.
// Strictly best-effort: a failed push is logged and forgotten, the local
// outcome stands either way.
type Notifier struct {
	sources repository.SourceRepo
	factory ClientFactory
	log     *logger.Logger
	timeout time.Duration
}

func NewNotifier(sources repository.SourceRepo, factory ClientFactory, log *logger.Logger, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{sources: sources, factory: factory, log: log, timeout: timeout}
}

// shouldNotify reports whether an outcome is worth mirroring: any comment,
// or a status a remote operator would care about.
func shouldNotify(status alarmdesk.Status, comment string) bool {
	if comment != "" {
		return true
	}
	switch status {
	case alarmdesk.StatusHandled, alarmdesk.StatusCompleted, alarmdesk.StatusOpportunity:
		return true
	}
	return false
}

// Notify pushes a note about one triaged lineage to every enabled source.
func (n *Notifier) Notify(ctx context.Context, key alarmdesk.LineageKey, rep alarmdesk.Occurrence, status alarmdesk.Status, comment string) {
	if !shouldNotify(status, comment) {
		return
	}

	srcs, err := n.sources.List(ctx, true)
	if err != nil {
		n.log.Warnw("mirror note skipped, sources unavailable", "err", err)
		return
	}

	note := source.NotePayload{
		AlarmID: rep.ID,
		Site:    key.Site,
		Point:   key.Point,
		Status:  string(status),
		Comment: comment,
	}
	for _, src := range srcs {
		if err := n.factory(src).PushNote(ctx, note); err != nil {
			n.log.Warnw("mirror note failed", "source_id", src.ID, "label", src.Label, "err", err)
			metrics.IncMirrorNote("error")
			continue
		}
		metrics.IncMirrorNote("ok")
	}
}

// NotifyAsync runs Notify on its own goroutine with a bounded deadline so
// user requests never wait on remote endpoints.
func (n *Notifier) NotifyAsync(key alarmdesk.LineageKey, rep alarmdesk.Occurrence, status alarmdesk.Status, comment string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		n.Notify(ctx, key, rep, status, comment)
	}()
}
