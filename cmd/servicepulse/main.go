// Command servicepulse runs the multi-tenant shop backend and its
// operator commands.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/ServicePulse/internal/config"
	"github.com/Strob0t/ServicePulse/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand.
type cli struct {
	configFile string
	cfg        *config.Config
	closeLog   logger.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:           "servicepulse",
		Short:         "Multi-tenant shop and repair platform backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return c.load()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if c.closeLog != nil {
				c.closeLog.Close()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&c.configFile, "config", config.DefaultConfigFile, "YAML configuration file")

	cmd.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
		newTenantCmd(c),
		newOwnerCmd(c),
	)
	return cmd
}

func (c *cli) load() error {
	cfg, err := config.LoadWith(c.configFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, closer := logger.New(cfg.Logging)
	slog.SetDefault(log)
	c.cfg = cfg
	c.closeLog = closer
	return nil
}
