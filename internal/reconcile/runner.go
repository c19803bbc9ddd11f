package reconcile

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"backfill/internal/logging"
)

// Source yields unresolved records in a fixed, deterministic order. A non-nil
// error aborts the batch.
type Source interface {
	FetchUnresolved(ctx context.Context) iter.Seq2[Record, error]
}

// Sink opens one transaction per matched record.
type Sink interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx persists a single identifier. Rollback after Commit must be a no-op.
type Tx interface {
	SetIdentifier(ctx context.Context, recordID string, identifier int64) error
	Commit() error
	Rollback() error
}

// Runner drives a reconciliation batch.
type Runner struct {
	source    Source
	sink      Sink
	chain     Chain
	logger    *slog.Logger
	limit     int
	runID     string
	observers []Observer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithLimit caps the number of records processed. Zero means unlimited.
func WithLimit(limit int) RunnerOption {
	return func(r *Runner) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

// WithRunID tags log lines and observer events with runID.
func WithRunID(runID string) RunnerOption {
	return func(r *Runner) { r.runID = runID }
}

// WithObserver registers a progress observer. Nil observers are ignored.
func WithObserver(observer Observer) RunnerOption {
	return func(r *Runner) {
		if observer != nil {
			r.observers = append(r.observers, observer)
		}
	}
}

// NewRunner constructs a runner over source and sink.
func NewRunner(source Source, sink Sink, chain Chain, opts ...RunnerOption) *Runner {
	r := &Runner{source: source, sink: sink, chain: chain}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "reconcile")
	return r
}

// Run processes every unresolved record and returns the summary. The summary
// is always populated with the records completed so far, including when the
// returned error is non-nil.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.source == nil || r.sink == nil {
		return Summary{}, errors.New("reconcile runner requires a source and a sink")
	}
	if r.runID != "" {
		ctx = logging.WithRunID(ctx, r.runID)
	}
	logger := logging.WithContext(ctx, r.logger)
	reporter := NewReporter()
	start := time.Now()

	for _, observer := range r.observers {
		observer.OnStart(r.runID)
	}
	logger.Info("reconcile run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Any("strategies", r.chain.Names()),
		logging.Int("limit", r.limit),
	)

	err := r.process(ctx, reporter)
	summary := reporter.Summary()

	attrs := []logging.Attr{
		logging.Int("total", summary.Total),
		logging.Int("updated", summary.Updated),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
		logging.ErrorWithContext(logger, "reconcile run aborted", "run_aborted", attrs...)
	} else {
		attrs = append(attrs, logging.String(logging.FieldEventType, "run_complete"))
		logger.Info("reconcile run completed", logging.Args(attrs...)...)
	}
	for _, observer := range r.observers {
		observer.OnFinish(summary, err)
	}
	return summary, err
}

func (r *Runner) process(ctx context.Context, reporter *Reporter) error {
	processed := 0
	for record, err := range r.source.FetchUnresolved(ctx) {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSource, err)
		}
		if r.limit > 0 && processed >= r.limit {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w after %d records: %w", ErrInterrupted, processed, ctxErr)
		}
		outcome := r.processRecord(context.WithoutCancel(ctx), record)
		reporter.Add(outcome)
		processed++
		for _, observer := range r.observers {
			observer.OnRecord(record, outcome)
		}
	}
	return nil
}

// processRecord runs the chain and persists a match. ctx is detached from
// cancellation so a started record always reaches a terminal status.
func (r *Runner) processRecord(ctx context.Context, record Record) Outcome {
	ctx = logging.WithRecordID(ctx, record.ID)
	logger := logging.WithContext(ctx, r.logger)

	candidate, strategy, ok := r.chain.Resolve(ctx, record)
	if !ok {
		logger.Info("no catalog match",
			logging.String("record", record.Label()),
			logging.String(logging.FieldEventType, "record_skipped"),
		)
		return Skipped(record.ID)
	}

	if err := r.persist(ctx, record.ID, candidate.Identifier); err != nil {
		logging.ErrorWithContext(logger, "persist failed", "record_failed",
			logging.String("record", record.Label()),
			logging.Int64("identifier", candidate.Identifier),
			logging.String("strategy", strategy),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "record remains unresolved and will be retried next run"),
		)
		return Failed(record.ID, candidate, err)
	}
	logger.Info("record updated",
		logging.String("record", record.Label()),
		logging.Int64("identifier", candidate.Identifier),
		logging.String("strategy", strategy),
		logging.String("confidence", candidate.Confidence.String()),
		logging.String(logging.FieldEventType, "record_updated"),
	)
	return Updated(record.ID, candidate)
}

func (r *Runner) persist(ctx context.Context, recordID string, identifier int64) (err error) {
	tx, err := r.sink.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()
	if err = tx.SetIdentifier(ctx, recordID, identifier); err != nil {
		return fmt.Errorf("set identifier: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
