package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"backfill/internal/catalog"
	"backfill/internal/metrics"
	"backfill/internal/reconcile"
)

func TestOutcomeCounters(t *testing.T) {
	m := metrics.New()
	m.OnStart("run-1")
	m.OnRecord(reconcile.Record{ID: "1"}, reconcile.Updated("1", reconcile.Candidate{Identifier: 5}))
	m.OnRecord(reconcile.Record{ID: "2"}, reconcile.Skipped("2"))
	m.OnRecord(reconcile.Record{ID: "3"}, reconcile.Skipped("3"))
	m.OnFinish(reconcile.Summary{Total: 3}, errors.New("source failed"))

	if got := testutil.ToFloat64(m.Outcomes.WithLabelValues("UPDATED")); got != 1 {
		t.Fatalf("updated = %v", got)
	}
	if got := testutil.ToFloat64(m.Outcomes.WithLabelValues("SKIPPED")); got != 2 {
		t.Fatalf("skipped = %v", got)
	}
	if got := testutil.ToFloat64(m.RunAborted); got != 1 {
		t.Fatalf("run aborted = %v", got)
	}
	if got := testutil.ToFloat64(m.LastRunComplete); got <= 0 {
		t.Fatalf("last run timestamp not set: %v", got)
	}
}

func TestObserveSearch(t *testing.T) {
	m := metrics.New()
	m.ObserveSearch(catalog.ModeExact, catalog.ResultHit, 300*time.Millisecond, 40*time.Millisecond)
	m.ObserveSearch(catalog.ModeRelaxed, catalog.ResultError, 0, 0)

	if got := testutil.ToFloat64(m.Searches.WithLabelValues("exact", "hit")); got != 1 {
		t.Fatalf("exact hits = %v", got)
	}
	if got := testutil.ToFloat64(m.Searches.WithLabelValues("relaxed", "error")); got != 1 {
		t.Fatalf("relaxed errors = %v", got)
	}
	if count := testutil.CollectAndCount(m.LimiterWait); count != 1 {
		t.Fatalf("expected one limiter histogram, got %d", count)
	}
}

func TestPushSendsRegistry(t *testing.T) {
	var (
		path string
		body string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	m := metrics.New()
	m.OnRecord(reconcile.Record{ID: "1"}, reconcile.Skipped("1"))
	if err := m.Push(context.Background(), server.URL, "tmdb_backfill", "abc"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !strings.Contains(path, "/job/tmdb_backfill") || !strings.Contains(path, "/run_id/abc") {
		t.Fatalf("unexpected push path %q", path)
	}
	if body == "" {
		t.Fatal("expected metric payload")
	}
}
