// Package metrics exposes Prometheus instrumentation for backfill runs. Each
// run owns a private registry that can be pushed to a Pushgateway once the
// batch finishes, since the process is too short-lived to be scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"backfill/internal/catalog"
	"backfill/internal/reconcile"
)

// Metrics tracks record outcomes, remote searches, and run timing.
type Metrics struct {
	registry *prometheus.Registry
	start    time.Time

	Outcomes        *prometheus.CounterVec
	Searches        *prometheus.CounterVec
	LimiterWait     prometheus.Histogram
	SearchLatency   prometheus.Histogram
	RunDuration     prometheus.Gauge
	LastRunComplete prometheus.Gauge
	RunAborted      prometheus.Gauge
}

var (
	_ reconcile.Observer = (*Metrics)(nil)
	_ catalog.Recorder   = (*Metrics)(nil)
)

// New creates a Metrics instance on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backfill_records_total",
			Help: "Records processed by terminal status",
		}, []string{"status"}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backfill_tmdb_searches_total",
			Help: "TMDB searches by mode and result",
		}, []string{"mode", "result"}),
		LimiterWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backfill_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a rate limiter slot",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.2, 0.3, 0.5, 1},
		}),
		SearchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backfill_tmdb_search_duration_seconds",
			Help:    "Latency of TMDB search requests",
			Buckets: prometheus.DefBuckets,
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backfill_run_duration_seconds",
			Help: "Wall time of the most recent run",
		}),
		LastRunComplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backfill_last_run_timestamp_seconds",
			Help: "Unix time the most recent run finished",
		}),
		RunAborted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backfill_run_aborted",
			Help: "1 when the most recent run stopped before exhausting its records",
		}),
	}
	registry.MustRegister(
		m.Outcomes,
		m.Searches,
		m.LimiterWait,
		m.SearchLatency,
		m.RunDuration,
		m.LastRunComplete,
		m.RunAborted,
	)
	return m
}

// Registry returns the private registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSearch records one remote search.
func (m *Metrics) ObserveSearch(mode catalog.SearchMode, result catalog.SearchResult, wait, latency time.Duration) {
	m.Searches.WithLabelValues(string(mode), string(result)).Inc()
	m.LimiterWait.Observe(wait.Seconds())
	if latency > 0 {
		m.SearchLatency.Observe(latency.Seconds())
	}
}

func (m *Metrics) OnStart(string) {
	m.start = time.Now()
}

func (m *Metrics) OnRecord(_ reconcile.Record, outcome reconcile.Outcome) {
	m.Outcomes.WithLabelValues(string(outcome.Status)).Inc()
}

func (m *Metrics) OnFinish(_ reconcile.Summary, err error) {
	if !m.start.IsZero() {
		m.RunDuration.Set(time.Since(m.start).Seconds())
	}
	m.LastRunComplete.SetToCurrentTime()
	if err != nil {
		m.RunAborted.Set(1)
	} else {
		m.RunAborted.Set(0)
	}
}

// Push sends the registry to a Pushgateway under job, grouped by run id.
func (m *Metrics) Push(ctx context.Context, url, job, runID string) error {
	pusher := push.New(url, job).Gatherer(m.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
