// Package metrics registers and serves the engine's Prometheus
// instrumentation. Init is safe to call more than once; helpers are no-ops
// until it ran.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "alarmdesk_"

var (
	registerOnce sync.Once

	cyclesTotal    *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	sourceFailures *prometheus.CounterVec
	mirrorNotes    *prometheus.CounterVec
	auditEntries   *prometheus.CounterVec
	lineagesGauge  prometheus.Gauge
)

// Init registers all collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		cyclesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "poll_cycles_total",
				Help: "Total poll cycles by result",
			},
			[]string{"result"},
		)
		cycleDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "poll_cycle_duration_seconds",
				Help:    "Poll cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		sourceFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "source_failures_total",
				Help: "Total per-source ingestion failures by kind",
			},
			[]string{"kind"},
		)
		mirrorNotes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mirror_notes_total",
				Help: "Total mirrored triage notes by result",
			},
			[]string{"result"},
		)
		auditEntries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "audit_entries_total",
				Help: "Total appended audit log entries by kind",
			},
			[]string{"kind"},
		)
		lineagesGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "lineages",
				Help: "Lineages in the latest poll cycle",
			},
		)

		prometheus.MustRegister(
			cyclesTotal,
			cycleDuration,
			sourceFailures,
			mirrorNotes,
			auditEntries,
			lineagesGauge,
		)
	})
}

// ObserveCycle records one completed poll cycle.
func ObserveCycle(result string, duration time.Duration) {
	if cyclesTotal != nil {
		cyclesTotal.WithLabelValues(result).Inc()
	}
	if cycleDuration != nil {
		cycleDuration.Observe(duration.Seconds())
	}
}

// SetLineages records the lineage count of the latest published snapshot.
func SetLineages(n int) {
	if lineagesGauge != nil {
		lineagesGauge.Set(float64(n))
	}
}

// IncSourceFailure counts one per-source ingestion failure.
func IncSourceFailure(kind string) {
	if sourceFailures != nil {
		sourceFailures.WithLabelValues(kind).Inc()
	}
}

// IncMirrorNote counts one mirror-note attempt.
func IncMirrorNote(result string) {
	if mirrorNotes != nil {
		mirrorNotes.WithLabelValues(result).Inc()
	}
}

// IncAuditEntry counts one appended audit entry.
func IncAuditEntry(kind string) {
	if auditEntries != nil {
		auditEntries.WithLabelValues(kind).Inc()
	}
}

// RegisterCountdown exposes the scheduler countdown as a gauge evaluated at
// scrape time. Call once, after the engine exists.
func RegisterCountdown(fn func() int) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "countdown_seconds",
			Help: "Seconds until the next scheduled poll cycle",
		},
		func() float64 { return float64(fn()) },
	))
}
