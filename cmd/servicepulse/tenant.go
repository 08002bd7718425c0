package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Strob0t/ServicePulse/internal/domain/tenant"
	"github.com/Strob0t/ServicePulse/internal/service"
)

// cliActor is recorded in the audit log for operator commands.
var cliActor = service.Actor{UserID: "cli"}

// withTenants runs fn against a TenantService backed by PostgreSQL.
func withTenants(ctx context.Context, c *cli, fn func(*service.TenantService) error) error {
	store, closeDB, err := openDatabase(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	resolver, closeResolver, err := newCLIResolver(ctx, c.cfg, store)
	if err != nil {
		return err
	}
	defer closeResolver()
	auth := service.NewAuthService(store, store, &c.cfg.Auth)
	return fn(service.NewTenantService(store, resolver, auth))
}

func newTenantCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}
	cmd.AddCommand(
		newTenantCreateCmd(c),
		newTenantListCmd(c),
		newTenantStatusCmd(c, "suspend", "Suspend a tenant; its hosts answer TENANT_SUSPENDED", tenant.StatusSuspended),
		newTenantStatusCmd(c, "activate", "Reactivate a tenant", tenant.StatusActive),
	)
	return cmd
}

func newTenantCreateCmd(c *cli) *cobra.Command {
	var req tenant.CreateRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant with its primary domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTenants(cmd.Context(), c, func(svc *service.TenantService) error {
				t, err := svc.Create(cmd.Context(), cliActor, req)
				if err != nil {
					return fmt.Errorf("create tenant: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, domain=%s)\n", t.Slug, t.ID, req.Domain)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&req.Slug, "slug", "", "URL-safe identifier (required)")
	cmd.Flags().StringVar(&req.Domain, "domain", "", "primary hostname (required)")
	cmd.Flags().BoolVar(&req.Verified, "verified", false, "mark the primary domain verified")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("slug")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

func newTenantListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tenants with usage counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTenants(cmd.Context(), c, func(svc *service.TenantService) error {
				tenants, err := svc.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list tenants: %w", err)
				}
				if len(tenants) == 0 {
					fmt.Println("No tenants found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tSLUG\tNAME\tSTATUS\tDOMAIN\tUSERS\tPRODUCTS\tORDERS")
				for i := range tenants {
					t := &tenants[i]
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
						t.ID, t.Slug, t.Name, t.Status, t.PrimaryDomain, t.UserCount, t.ProductCount, t.OrderCount)
				}
				return w.Flush()
			})
		},
	}
}

func newTenantStatusCmd(c *cli, use, short string, status tenant.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <slug|id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTenants(cmd.Context(), c, func(svc *service.TenantService) error {
				t, err := svc.GetBySlugOrID(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find tenant %q: %w", args[0], err)
				}
				if _, err := svc.SetStatus(cmd.Context(), cliActor, t.ID, status); err != nil {
					return fmt.Errorf("%s tenant: %w", use, err)
				}
				fmt.Fprintf(os.Stderr, "Tenant %s is now %s\n", t.Slug, status)
				return nil
			})
		},
	}
}
