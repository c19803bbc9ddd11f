package reconcile_test

import (
	"errors"
	"testing"

	"backfill/internal/reconcile"
)

func TestReporterCountsByStatus(t *testing.T) {
	reporter := reconcile.NewReporter()
	reporter.Add(reconcile.Updated("1", reconcile.Candidate{Identifier: 10, Confidence: reconcile.ConfidenceExactSearch}))
	reporter.Add(reconcile.Skipped("2"))
	reporter.Add(reconcile.Failed("3", reconcile.Candidate{Identifier: 30}, errors.New("locked")))
	reporter.Add(reconcile.Skipped("4"))

	got := reporter.Summary()
	want := reconcile.Summary{Total: 4, Updated: 1, Skipped: 2, Failed: 1}
	if got != want {
		t.Fatalf("Summary() = %+v, want %+v", got, want)
	}
	if got.String() != "total=4 updated=1 skipped=2 failed=1" {
		t.Fatalf("unexpected summary string %q", got.String())
	}
	outcomes := reporter.Outcomes()
	if outcomes[0].RecordID != "1" || outcomes[3].RecordID != "4" {
		t.Fatalf("outcomes out of order: %+v", outcomes)
	}
}

func TestFailedOutcomeAlwaysCarriesError(t *testing.T) {
	outcome := reconcile.Failed("9", reconcile.Candidate{Identifier: 5}, nil)
	if outcome.Err == "" {
		t.Fatal("failed outcome must carry an error message")
	}
}

func TestRecordLabel(t *testing.T) {
	year := 1988
	if got := (reconcile.Record{Title: "Die Hard", Year: &year}).Label(); got != "Die Hard (1988)" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (reconcile.Record{Title: "Nameless"}).Label(); got != "Nameless (unknown year)" {
		t.Fatalf("unexpected label %q", got)
	}
}
