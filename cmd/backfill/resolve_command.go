package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"backfill/internal/reconcile"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var year int
	var sourceURL string

	cmd := &cobra.Command{
		Use:   "resolve <title>",
		Short: "Show which TMDB id a title would resolve to without writing anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			chain, err := buildChain(cfg, logger, nil)
			if err != nil {
				return err
			}

			record := reconcile.Record{
				ID:        "cli",
				Title:     strings.Join(args, " "),
				SourceURL: strings.TrimSpace(sourceURL),
			}
			if year > 0 {
				record.Year = &year
			}

			out := cmd.OutOrStdout()
			candidate, strategy, ok := chain.Resolve(cmd.Context(), record)
			if !ok {
				fmt.Fprintf(out, "%s -> no match\n", record.Label())
				return nil
			}
			rows := [][]string{
				{"TMDB id", fmt.Sprintf("%d", candidate.Identifier)},
				{"Strategy", strategy},
				{"Confidence", candidate.Confidence.String()},
			}
			if candidate.SourceTitle != "" {
				rows = append(rows, []string{"Matched title", candidate.SourceTitle})
			}
			if candidate.SourceYear > 0 {
				rows = append(rows, []string{"Matched year", fmt.Sprintf("%d", candidate.SourceYear)})
			}
			fmt.Fprintln(out, renderTable(record.Label(), []string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Release year")
	cmd.Flags().StringVar(&sourceURL, "url", "", "Source URL stored with the record")
	return cmd
}
