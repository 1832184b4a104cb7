package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choreboard/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and report the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open applies pending migrations.
			db, err := database.Open(a.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := database.Version(db)
			if err != nil {
				return err
			}
			a.logger.Info("database migrated", "db", a.cfg.Database.Path, "version", v)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}
