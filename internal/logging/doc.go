// Package logging assembles structured slog loggers and formatting helpers used
// across the backfill.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so the reconciliation loop can
// tag log lines with run and record identifiers. Interactive terminals get a
// colored console handler. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
package logging
