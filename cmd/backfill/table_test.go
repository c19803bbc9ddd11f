package main

import (
	"strings"
	"testing"

	"backfill/internal/reconcile"
)

func TestRenderSummaryDryRunNotice(t *testing.T) {
	summary := reconcile.Summary{Total: 3, Updated: 2, Skipped: 1}

	out := renderSummary(summary, true)
	if !strings.HasPrefix(out, dryRunNotice+"\n") {
		t.Fatalf("expected dry run notice on its own line, got:\n%s", out)
	}
	requireContains(t, out, "Backfill summary")

	out = renderSummary(summary, false)
	if strings.Contains(out, dryRunNotice) {
		t.Fatalf("unexpected dry run notice:\n%s", out)
	}
	requireContains(t, out, "Backfill summary")
	requireContains(t, out, "Updated")
}
