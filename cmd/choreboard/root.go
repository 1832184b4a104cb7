package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choreboard/internal/config"
	"github.com/dukerupert/choreboard/internal/logging"
)

// app is the state shared by every subcommand once the root command's
// pre-run has loaded configuration.
type app struct {
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "choreboard",
		Short:        "Household chore tracker with points, streaks and leaderboards",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.logger = logging.Setup(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "path to a YAML config file (overrides "+config.FileEnv+")")

	root.AddCommand(newServeCmd(a), newMigrateCmd(a), newTemplatesCmd(a), newBackupCmd(a))
	return root
}
