package service

import (
	"context"
	"time"

	"alarmdesk"
	"alarmdesk/internal/logger"
	"alarmdesk/internal/repository"
	"alarmdesk/internal/source"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Triage exposes the per-lineage annotation surface: comments, status
// changes and the merged activity history.
type Triage interface {
	SubmitComment(ctx context.Context, key alarmdesk.LineageKey, text string) error
	SetStatus(ctx context.Context, key alarmdesk.LineageKey, status alarmdesk.Status) error
	History(ctx context.Context, key alarmdesk.LineageKey) ([]alarmdesk.HistoryEntry, error)
}

// SourceAdmin manages the alarm source descriptors the poller reads from.
type SourceAdmin interface {
	Create(ctx context.Context, s alarmdesk.Source) (alarmdesk.Source, error)
	Update(ctx context.Context, s alarmdesk.Source) (alarmdesk.Source, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*alarmdesk.Source, error)
	List(ctx context.Context) ([]alarmdesk.Source, error)
}

// Poller drives poll cycles and serves the lineage snapshot they produce.
// Stop via context cancellation in main() for graceful shutdown.
type Poller interface {
	Run(ctx context.Context)
	TriggerRefresh()
	Countdown() int
	Lineages(f LineageFilter) []alarmdesk.Lineage
	LastCycle() (alarmdesk.CycleResult, bool)
	OnCycleComplete(fn func(alarmdesk.CycleResult))
}

// SourceClient is the slice of the ingestion adapter the services consume.
type SourceClient interface {
	Fetch(ctx context.Context) ([]alarmdesk.Occurrence, error)
	PushNote(ctx context.Context, note source.NotePayload) error
}

// ClientFactory builds a client for one source descriptor. Injected so
// tests can swap the HTTP adapter for a fake.
type ClientFactory func(alarmdesk.Source) SourceClient

type Service struct {
	Triage
	SourceAdmin
	Poller
	Authorization
}

// Options carries the tunables main() reads from configuration.
type Options struct {
	PollInterval  time.Duration
	SourceTimeout time.Duration
	SigningKey    string
	TokenTTL      time.Duration
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, log *logger.Logger, opts Options) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 10 * time.Second
	}

	factory := func(s alarmdesk.Source) SourceClient {
		return source.NewClient(s, opts.SourceTimeout)
	}
	collector := NewCollector(factory, log)
	engine := NewEngine(repos, collector, log, opts.PollInterval)
	notifier := NewNotifier(repos.Sources, factory, log, opts.SourceTimeout)

	return &Service{
		Triage:        NewTriageService(repos, engine, notifier, log),
		SourceAdmin:   NewSourceAdminService(repos.Sources, log),
		Poller:        engine,
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
	}
}
