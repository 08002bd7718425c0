package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Strob0t/ServicePulse/internal/domain/user"
	"github.com/Strob0t/ServicePulse/internal/service"
)

func newOwnerCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage platform owner accounts",
	}
	cmd.AddCommand(newOwnerCreateCmd(c))
	return cmd
}

func newOwnerCreateCmd(c *cli) *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a platform owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pass := password
			if pass == "" {
				var err error
				pass, err = promptPassword("Password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				confirm, err := promptPassword("Confirm password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				if pass != confirm {
					return fmt.Errorf("passwords do not match")
				}
			}

			store, closeDB, err := openDatabase(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			auth := service.NewAuthService(store, store, &c.cfg.Auth)
			u, err := auth.CreateUser(cmd.Context(), &user.CreateRequest{
				Email:    email,
				Name:     name,
				Password: pass,
				Role:     user.RoleOwner,
			})
			if err != nil {
				return fmt.Errorf("create owner: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Owner created: %s (id=%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email address (required)")
	cmd.Flags().StringVar(&name, "name", "Platform Owner", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
