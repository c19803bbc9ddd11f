package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"backfill/internal/logging"
	"backfill/internal/metrics"
	"backfill/internal/reconcile"
	"backfill/internal/runlock"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var limit int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve and store TMDB ids for every record missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dry-run") {
				dryRun = cfg.Reconcile.DryRun
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Reconcile.Limit
			}
			if limit < 0 {
				return errors.New("--limit must be >= 0")
			}

			runID := uuid.NewString()
			runLogger := logger.With(logging.String(logging.FieldRunID, runID))

			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					logging.WarnWithContext(runLogger, "failed to release run lock", "run_lock_release_failed",
						logging.String("lock", lock.Path()),
						logging.Error(err),
					)
				}
			}()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := ctx.openStore(runCtx)
			if err != nil {
				return err
			}
			defer st.Close()

			m := metrics.New()
			chain, err := buildChain(cfg, logger, m)
			if err != nil {
				return err
			}

			if pending, err := st.CountUnresolved(runCtx); err == nil {
				runLogger.Info("unresolved records found",
					logging.Int("count", pending),
					logging.String("database", st.Descriptor().String()),
					logging.Bool("dry_run", dryRun),
				)
			}

			var sink reconcile.Sink = st
			if dryRun {
				sink = reconcile.DryRunSink{Sink: st}
			}

			out := cmd.OutOrStdout()
			runner := reconcile.NewRunner(st, sink, chain,
				reconcile.WithLogger(logger),
				reconcile.WithLimit(limit),
				reconcile.WithRunID(runID),
				reconcile.WithObserver(newProgressPrinter(out, cfg.Logging.Color && logging.IsTerminal(out))),
				reconcile.WithObserver(m),
			)

			summary, runErr := runner.Run(runCtx)
			fmt.Fprintln(out, renderSummary(summary, dryRun))

			if url := cfg.Metrics.PushgatewayURL; url != "" {
				pushCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), 10*time.Second)
				if err := m.Push(pushCtx, url, cfg.Metrics.Job, runID); err != nil {
					logging.WarnWithContext(runLogger, "metrics push failed", "metrics_push_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "run metrics not recorded"),
					)
				}
				cancel()
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and exercise writes but roll every transaction back")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most N records (0 = all)")
	return cmd
}
