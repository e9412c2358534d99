package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alarmdesk"
	"alarmdesk/internal/logger"
	"alarmdesk/internal/metrics"
	"alarmdesk/internal/repository"
)

// Engine owns the poll loop. Each cycle collects occurrences from every
// enabled source, groups them into lineages, detects re-fired alarms,
// derives triage statuses and publishes the result as the current snapshot.
// Cycles never overlap, and a failed cycle leaves the previous snapshot in
// place.
type Engine struct {
	sources   repository.SourceRepo
	status    repository.StatusRepo
	logs      repository.LogRepo
	collector *Collector
	log       *logger.Logger

	interval  time.Duration
	refreshCh chan struct{}

	cycleMu    sync.Mutex // one cycle in flight; guards prevCounts
	prevCounts map[string]int

	mu        sync.RWMutex // guards the published state below
	snapshot  []alarmdesk.Lineage
	byKey     map[string]alarmdesk.Occurrence
	lastCycle alarmdesk.CycleResult
	hasCycle  bool
	nextRunAt time.Time

	listenerMu sync.Mutex
	listeners  []func(alarmdesk.CycleResult)
}

var _ Poller = (*Engine)(nil)

func NewEngine(repos *repository.Repository, collector *Collector, log *logger.Logger, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Engine{
		sources:    repos.Sources,
		status:     repos.Status,
		logs:       repos.Logs,
		collector:  collector,
		log:        log,
		interval:   interval,
		refreshCh:  make(chan struct{}, 1),
		prevCounts: make(map[string]int),
		byKey:      make(map[string]alarmdesk.Occurrence),
	}
}

// Run executes one cycle immediately, then keeps polling until ctx is
// cancelled. Manual refreshes are coalesced to at most one queued trigger,
// and every executed cycle restarts the countdown.
func (e *Engine) Run(ctx context.Context) {
	e.runCycle(ctx)
	e.setNextRun(time.Now().Add(e.interval))

	timer := time.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Infow("poll loop stopped", "reason", ctx.Err())
			return
		case <-timer.C:
			e.runCycle(ctx)
			timer.Reset(e.interval)
			e.setNextRun(time.Now().Add(e.interval))
		case <-e.refreshCh:
			e.runCycle(ctx)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(e.interval)
			e.setNextRun(time.Now().Add(e.interval))
		}
	}
}

// TriggerRefresh requests an immediate cycle. Returns right away; the
// request is dropped if one is already queued.
func (e *Engine) TriggerRefresh() {
	select {
	case e.refreshCh <- struct{}{}:
	default:
	}
}

// Countdown reports whole seconds until the next scheduled cycle.
func (e *Engine) Countdown() int {
	e.mu.RLock()
	next := e.nextRunAt
	e.mu.RUnlock()

	if next.IsZero() {
		return int(e.interval.Seconds())
	}
	remaining := int(time.Until(next).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Lineages returns the current snapshot filtered down to f. The snapshot is
// replaced wholesale by each cycle and never mutated in place, so the
// returned lineages stay valid after the next cycle.
func (e *Engine) Lineages(f LineageFilter) []alarmdesk.Lineage {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]alarmdesk.Lineage, 0, len(e.snapshot))
	for _, l := range e.snapshot {
		if f.matches(l) {
			out = append(out, l)
		}
	}
	return out
}

func (e *Engine) LastCycle() (alarmdesk.CycleResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastCycle, e.hasCycle
}

// Representative resolves a lineage key against the latest snapshot.
func (e *Engine) Representative(key alarmdesk.LineageKey) (alarmdesk.Occurrence, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rep, ok := e.byKey[key.String()]
	return rep, ok
}

// OnCycleComplete registers fn to run after every cycle, including failed
// ones. Listeners run on the poll goroutine and must not block.
func (e *Engine) OnCycleComplete(fn func(alarmdesk.CycleResult)) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) runCycle(ctx context.Context) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	result := alarmdesk.CycleResult{
		StartedAt: time.Now().UTC(),
		Failures:  map[string]string{},
	}

	srcs, err := e.sources.List(ctx, true)
	if err != nil {
		e.log.Errorw("cycle aborted, source list unavailable", "err", err)
		result.Failures["sources"] = err.Error()
		e.finishCycle(result, nil, false)
		return
	}

	stored, err := e.status.All(ctx)
	if err != nil {
		e.log.Errorw("cycle aborted, status store unavailable", "err", err)
		result.Failures["status_store"] = err.Error()
		e.finishCycle(result, nil, false)
		return
	}

	occs, failures := e.collector.Collect(ctx, srcs)
	for id, msg := range failures {
		result.Failures[id] = msg
	}

	lineages := groupOccurrences(occs)
	flagged, nextCounts := detectNewOccurrences(lineages, e.prevCounts)
	e.prevCounts = nextCounts

	for i := range lineages {
		l := &lineages[i]
		ks := l.Key.String()
		status, reset := applyTriage(l.Representative, flagged[ks], stored[ks])
		l.Status = status

		switch {
		case status == alarmdesk.StatusCompleted && stored[ks] != alarmdesk.StatusCompleted:
			if err := e.status.Save(ctx, ks, status); err != nil {
				e.log.Errorw("persist forced status failed", "lineage", ks, "err", err)
			}
		case reset:
			result.NewOccurrences = append(result.NewOccurrences, ks)
			e.recordReset(ctx, ks, l.Count, stored[ks])
		}
	}

	sort.SliceStable(lineages, func(i, j int) bool {
		ti, tj := lineages[i].Representative.AdjustedAt, lineages[j].Representative.AdjustedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return lineages[i].Key.String() < lineages[j].Key.String()
	})

	result.Occurrences = len(occs)
	result.Lineages = len(lineages)
	e.finishCycle(result, lineages, true)
}

// recordReset persists the automatic not_handled reset and appends the two
// audit entries that document it. Storage errors degrade to log lines; the
// in-memory status stands regardless.
func (e *Engine) recordReset(ctx context.Context, ks string, count int, stored alarmdesk.Status) {
	if stored != alarmdesk.StatusNotHandled {
		if err := e.status.Save(ctx, ks, alarmdesk.StatusNotHandled); err != nil {
			e.log.Errorw("persist reset status failed", "lineage", ks, "err", err)
		}
	}

	change := alarmdesk.StatusChangeEntry{
		Status: alarmdesk.StatusNotHandled,
		Reason: alarmdesk.ReasonAutoNewOccurrence,
	}
	if err := e.logs.AppendStatusChange(ctx, ks, change); err != nil {
		e.log.Errorw("append reset status change failed", "lineage", ks, "err", err)
	} else {
		metrics.IncAuditEntry("status")
	}

	comment := alarmdesk.CommentEntry{Body: autoResetComment(count)}
	if err := e.logs.AppendComment(ctx, ks, comment); err != nil {
		e.log.Errorw("append reset comment failed", "lineage", ks, "err", err)
	} else {
		metrics.IncAuditEntry("comment")
	}
}

func (e *Engine) finishCycle(result alarmdesk.CycleResult, lineages []alarmdesk.Lineage, publish bool) {
	result.FinishedAt = time.Now().UTC()

	e.mu.Lock()
	if publish {
		byKey := make(map[string]alarmdesk.Occurrence, len(lineages))
		for _, l := range lineages {
			byKey[l.Key.String()] = l.Representative
		}
		e.snapshot = lineages
		e.byKey = byKey
	}
	e.lastCycle = result
	e.hasCycle = true
	e.mu.Unlock()

	outcome := "ok"
	if len(result.Failures) > 0 {
		outcome = "degraded"
	}
	metrics.ObserveCycle(outcome, result.FinishedAt.Sub(result.StartedAt))
	if publish {
		metrics.SetLineages(result.Lineages)
	}
	e.log.Infow("poll cycle finished",
		"occurrences", result.Occurrences,
		"lineages", result.Lineages,
		"new", len(result.NewOccurrences),
		"failures", len(result.Failures),
		"took", result.FinishedAt.Sub(result.StartedAt),
	)

	e.listenerMu.Lock()
	listeners := make([]func(alarmdesk.CycleResult), len(e.listeners))
	copy(listeners, e.listeners)
	e.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(result)
	}
}

func (e *Engine) setNextRun(t time.Time) {
	e.mu.Lock()
	e.nextRunAt = t
	e.mu.Unlock()
}
