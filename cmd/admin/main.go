package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ctspark-backend/internal/app"
	"ctspark-backend/internal/config"
	"ctspark-backend/internal/logger"
)

var Version = "dev"

// cli carries the application built once per invocation.
type cli struct {
	configPath string
	app        *app.App
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:     "ctspark-admin",
		Short:   "Operator tooling for the CT SPARK backend",
		Version: Version,
		// Commands touch the configured store directly; the API server need not run.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger.Initialize(cfg.Log.Level, cfg.Log.Format)
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "config/config.dev.yaml", "Path to configuration file")

	// Add subcommands
	rootCmd.AddCommand(c.vouchersCmd())
	rootCmd.AddCommand(c.transactionsCmd())
	rootCmd.AddCommand(c.usersCmd())
	rootCmd.AddCommand(c.tokenCmd())
	rootCmd.AddCommand(c.webhookCmd())
	return rootCmd
}
