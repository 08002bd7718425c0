package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Strob0t/ServicePulse/internal/adapter/postgres"
	"github.com/Strob0t/ServicePulse/internal/service"
)

func newSeedCmd(c *cli) *cobra.Command {
	var skipBackfill bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default tenant and owner, then assign legacy rows to the default tenant",
		Long: `seed is safe to run repeatedly. It creates the default tenant and its
domains when missing, creates the platform owner when none exists and
OWNER_PASSWORD is set, and assigns every row without a tenant to the
default tenant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := postgres.RunMigrations(ctx, c.cfg.Postgres.DSN); err != nil {
				return err
			}
			store, closeDB, err := openDatabase(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			opts := service.SeedOptionsFrom(c.cfg.Tenancy, c.cfg.Auth)
			opts.SkipBackfill = skipBackfill
			if opts.OwnerPassword == "" {
				fmt.Fprintln(os.Stderr, "OWNER_PASSWORD not set, skipping platform owner")
				opts.OwnerEmail = ""
			}

			resolver, closeResolver, err := newCLIResolver(ctx, c.cfg, store)
			if err != nil {
				return err
			}
			defer closeResolver()

			auth := service.NewAuthService(store, store, &c.cfg.Auth)
			rep, err := service.NewSeedService(store, auth, resolver).Run(ctx, opts)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			return printSeedReport(opts, rep)
		},
	}
	cmd.Flags().BoolVar(&skipBackfill, "skip-backfill", false, "leave rows without a tenant untouched")
	return cmd
}

func printSeedReport(opts service.SeedOptions, rep *service.SeedReport) error {
	fmt.Printf("default tenant %s (%s): created=%t\n", opts.Slug, opts.TenantID, rep.TenantCreated)
	if len(rep.DomainsAdded) > 0 {
		fmt.Printf("domains added: %s\n", strings.Join(rep.DomainsAdded, ", "))
	}
	if opts.OwnerEmail != "" {
		fmt.Printf("platform owner %s: created=%t\n", opts.OwnerEmail, rep.OwnerCreated)
	}
	if opts.SkipBackfill {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tROWS")
	for _, c := range rep.Backfilled {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", c.Table, c.Rows)
	}
	_, _ = fmt.Fprintf(w, "total\t%d\n", rep.Total())
	return w.Flush()
}
