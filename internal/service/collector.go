package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"alarmdesk"
	"alarmdesk/internal/logger"
	"alarmdesk/internal/metrics"
	"alarmdesk/internal/source"
)

// Collector fans poll requests out to every enabled source and folds the
// results back together. One bad source never takes down the batch.
type Collector struct {
	factory ClientFactory
	log     *logger.Logger
}

func NewCollector(factory ClientFactory, log *logger.Logger) *Collector {
	return &Collector{factory: factory, log: log}
}

// Collect fetches occurrences from every source concurrently. Failures are
// returned per source ID alongside whatever the healthy sources produced.
// With no sources it returns immediately without touching the network.
func (c *Collector) Collect(ctx context.Context, sources []alarmdesk.Source) ([]alarmdesk.Occurrence, map[string]string) {
	failures := make(map[string]string)
	if len(sources) == 0 {
		return nil, failures
	}

	var (
		mu  sync.Mutex
		all []alarmdesk.Occurrence
	)

	var g errgroup.Group
	for _, src := range sources {
		src := src
		g.Go(func() error {
			occs, err := c.factory(src).Fetch(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// recorded, not returned: the other sources keep going
				failures[src.ID] = err.Error()
				metrics.IncSourceFailure(failureKind(err))
				c.log.Warnw("source fetch failed", "source_id", src.ID, "label", src.Label, "err", err)
				return nil
			}
			all = append(all, occs...)
			return nil
		})
	}
	_ = g.Wait()

	return all, failures
}

func failureKind(err error) string {
	var authErr *source.AuthError
	if errors.As(err, &authErr) {
		return "auth"
	}
	return "fetch"
}
