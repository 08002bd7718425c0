package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/ServicePulse/internal/adapter/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := postgres.RunMigrations(cmd.Context(), c.cfg.Postgres.DSN); err != nil {
				return err
			}
			return printVersion(cmd, c)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			if err := postgres.RollbackMigrations(cmd.Context(), c.cfg.Postgres.DSN, steps); err != nil {
				return err
			}
			return printVersion(cmd, c)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd, c)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, c *cli) error {
	v, err := postgres.MigrationVersion(cmd.Context(), c.cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "schema version: %d\n", v)
	return nil
}
