package reconcile_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"backfill/internal/catalog"
	"backfill/internal/reconcile"
)

func scenarioRecords() []reconcile.Record {
	return []reconcile.Record{
		{ID: "a", Title: "Die Hard", Year: intPtr(1988)},
		{ID: "b", Title: "Home Alone", Year: intPtr(1990), SourceURL: "https://catalog.example/movie/771"},
		{ID: "c", Title: "Obscure Short", Year: intPtr(2021)},
	}
}

func scenarioSearcher() *stubSearcher {
	searcher := newStubSearcher()
	searcher.exact["Die Hard"] = []catalog.Match{{ID: 562, Title: "Die Hard"}}
	return searcher
}

func TestRunScenarios(t *testing.T) {
	searcher := scenarioSearcher()
	sink := newMemorySink()
	runner := reconcile.NewRunner(sliceSource{records: scenarioRecords()}, sink,
		reconcile.NewDefaultChain("catalog.example", searcher))

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := reconcile.Summary{Total: 3, Updated: 2, Skipped: 1}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	wantWrites := []write{{"a", 562}, {"b", 771}}
	if got := sink.writes(); !reflect.DeepEqual(got, wantWrites) {
		t.Fatalf("writes = %+v, want %+v", got, wantWrites)
	}
	if calls := searcher.callsFor("Home Alone"); len(calls) != 0 {
		t.Fatalf("url record made %d remote calls", len(calls))
	}
	if calls := searcher.callsFor("Die Hard"); len(calls) != 1 {
		t.Fatalf("exact hit must not trigger relaxed search, got %d calls", len(calls))
	}
	calls := searcher.callsFor("Obscure Short")
	if len(calls) != 2 || calls[0].year == nil || calls[1].year != nil {
		t.Fatalf("expected one exact and one relaxed call, got %+v", calls)
	}
}

func TestRunRelaxedSearchMatch(t *testing.T) {
	searcher := newStubSearcher()
	searcher.relaxed["Alien"] = []catalog.Match{{ID: 348}}
	sink := newMemorySink()
	var outcomes []reconcile.Outcome
	runner := reconcile.NewRunner(
		sliceSource{records: []reconcile.Record{{ID: "x", Title: "Alien", Year: intPtr(1980)}}},
		sink,
		reconcile.NewDefaultChain("themoviedb.org", searcher),
		reconcile.WithObserver(reconcile.ObserverFuncs{Record: func(_ reconcile.Record, o reconcile.Outcome) {
			outcomes = append(outcomes, o)
		}}),
	)
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != reconcile.StatusUpdated ||
		outcomes[0].Identifier != 348 || outcomes[0].Confidence != reconcile.ConfidenceRelaxedSearch {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
}

func TestRunWithoutYearNeverRelaxes(t *testing.T) {
	searcher := newStubSearcher()
	searcher.relaxed["Nameless"] = []catalog.Match{{ID: 9}}
	sink := newMemorySink()
	runner := reconcile.NewRunner(
		sliceSource{records: []reconcile.Record{{ID: "n", Title: "Nameless"}}},
		sink,
		reconcile.NewDefaultChain("themoviedb.org", searcher),
	)
	// The stub answers year-less calls from the relaxed table, so the single
	// exact call without a year resolves here; there must be no second call.
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if calls := searcher.callsFor("Nameless"); len(calls) != 1 {
		t.Fatalf("expected exactly one search, got %d", len(calls))
	}
	if summary.Updated != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	empty := newStubSearcher()
	runner = reconcile.NewRunner(
		sliceSource{records: []reconcile.Record{{ID: "n", Title: "Nameless"}}},
		newMemorySink(),
		reconcile.NewDefaultChain("themoviedb.org", empty),
	)
	summary, err = runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Skipped != 1 || len(empty.calls) != 1 {
		t.Fatalf("expected direct skip after one search, got %+v with %d calls", summary, len(empty.calls))
	}
}

func TestRunPersistFailureIsIsolated(t *testing.T) {
	records := []reconcile.Record{
		{ID: "1", Title: "A", SourceURL: "https://www.themoviedb.org/movie/1"},
		{ID: "2", Title: "B", SourceURL: "https://www.themoviedb.org/movie/2"},
		{ID: "3", Title: "C", SourceURL: "https://www.themoviedb.org/movie/3"},
	}
	sink := newMemorySink()
	sink.failFor["2"] = errors.New("unique constraint violated")
	reporter := reconcile.NewReporter()
	runner := reconcile.NewRunner(sliceSource{records: records}, sink,
		reconcile.NewDefaultChain("themoviedb.org", newStubSearcher()),
		reconcile.WithObserver(reconcile.ObserverFuncs{Record: func(_ reconcile.Record, o reconcile.Outcome) {
			reporter.Add(o)
		}}),
	)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary != (reconcile.Summary{Total: 3, Updated: 2, Failed: 1}) {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := sink.writes(); !reflect.DeepEqual(got, []write{{"1", 1}, {"3", 3}}) {
		t.Fatalf("unexpected writes %+v", got)
	}
	if sink.rollbacks != 1 {
		t.Fatalf("expected one rollback, got %d", sink.rollbacks)
	}
	failed := reporter.Outcomes()[1]
	if failed.Status != reconcile.StatusFailed || !strings.Contains(failed.Err, "unique constraint") {
		t.Fatalf("unexpected failed outcome %+v", failed)
	}
}

func TestRunIsIdempotentOverUnchangedInput(t *testing.T) {
	collect := func() ([]reconcile.Outcome, reconcile.Summary) {
		reporter := reconcile.NewReporter()
		runner := reconcile.NewRunner(sliceSource{records: scenarioRecords()}, newMemorySink(),
			reconcile.NewDefaultChain("catalog.example", scenarioSearcher()),
			reconcile.WithObserver(reconcile.ObserverFuncs{Record: func(_ reconcile.Record, o reconcile.Outcome) {
				reporter.Add(o)
			}}),
		)
		summary, err := runner.Run(context.Background())
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		return reporter.Outcomes(), summary
	}
	firstOutcomes, firstSummary := collect()
	secondOutcomes, secondSummary := collect()
	if !reflect.DeepEqual(firstOutcomes, secondOutcomes) || firstSummary != secondSummary {
		t.Fatalf("runs diverged: %+v vs %+v", firstOutcomes, secondOutcomes)
	}
}

func TestRunSourceFailureReturnsPartialSummary(t *testing.T) {
	boom := errors.New("connection reset")
	source := sliceSource{records: scenarioRecords(), failAt: 2, err: boom}
	var finished reconcile.Summary
	var finishErr error
	runner := reconcile.NewRunner(source, newMemorySink(),
		reconcile.NewDefaultChain("catalog.example", scenarioSearcher()),
		reconcile.WithObserver(reconcile.ObserverFuncs{Finish: func(s reconcile.Summary, err error) {
			finished, finishErr = s, err
		}}),
	)

	summary, err := runner.Run(context.Background())
	if !errors.Is(err, reconcile.ErrSource) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if summary != (reconcile.Summary{Total: 2, Updated: 2}) {
		t.Fatalf("unexpected partial summary %+v", summary)
	}
	if finished != summary || finishErr != err {
		t.Fatal("observer did not receive the partial summary")
	}
}

func TestRunCancellationStopsAtRecordBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := newMemorySink()
	processed := 0
	runner := reconcile.NewRunner(sliceSource{records: scenarioRecords()}, sink,
		reconcile.NewDefaultChain("catalog.example", scenarioSearcher()),
		reconcile.WithObserver(reconcile.ObserverFuncs{Record: func(reconcile.Record, reconcile.Outcome) {
			processed++
			cancel()
		}}),
	)

	summary, err := runner.Run(ctx)
	if !errors.Is(err, reconcile.ErrInterrupted) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected interrupted error, got %v", err)
	}
	if processed != 1 || summary.Total != 1 || summary.Updated != 1 {
		t.Fatalf("expected exactly one completed record, got %+v", summary)
	}
	if len(sink.writes()) != 1 {
		t.Fatalf("expected one committed write, got %d", len(sink.writes()))
	}
}

func TestRunHonoursLimit(t *testing.T) {
	sink := newMemorySink()
	runner := reconcile.NewRunner(sliceSource{records: scenarioRecords()}, sink,
		reconcile.NewDefaultChain("catalog.example", scenarioSearcher()),
		reconcile.WithLimit(2),
	)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Total != 2 {
		t.Fatalf("expected 2 records, got %+v", summary)
	}
}

func TestRunRequiresSourceAndSink(t *testing.T) {
	runner := reconcile.NewRunner(nil, nil, nil)
	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected error without source and sink")
	}
}
