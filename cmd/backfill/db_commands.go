package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}
	dbCmd.AddCommand(newDBMigrateCommand(ctx))
	dbCmd.AddCommand(newDBStatusCommand(ctx))
	return dbCmd
}

func newDBMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			status, err := st.PendingMigrations(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", status.Current)
			return nil
		},
	}
}

func newDBStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schema version, pending migrations, and unresolved record count",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			status, err := st.PendingMigrations(cmd.Context())
			if err != nil {
				return err
			}
			pending := make([]string, 0, len(status.Pending))
			for _, v := range status.Pending {
				pending = append(pending, strconv.FormatInt(v, 10))
			}
			pendingText := "none"
			if len(pending) > 0 {
				pendingText = strings.Join(pending, ", ")
			}

			unresolved := "n/a"
			if len(status.Pending) == 0 {
				count, err := st.CountUnresolved(cmd.Context())
				if err != nil {
					return err
				}
				unresolved = strconv.Itoa(count)
			}

			rows := [][]string{
				{"Database", st.Descriptor().String()},
				{"Schema version", strconv.FormatInt(status.Current, 10)},
				{"Latest version", strconv.FormatInt(status.Latest, 10)},
				{"Pending migrations", pendingText},
				{"Up to date", yesNo(len(status.Pending) == 0)},
				{"Unresolved records", unresolved},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("", []string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}
