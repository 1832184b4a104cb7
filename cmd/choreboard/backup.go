package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choreboard/internal/backup"
	"github.com/dukerupert/choreboard/internal/database"
)

// passphraseEnv supplies the snapshot passphrase so it stays out of shell history.
const passphraseEnv = "CHOREBOARD_BACKUP_PASSPHRASE"

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and restore the database",
	}

	var out string
	create := &cobra.Command{
		Use:   "create",
		Short: "Write a consistent snapshot of the database",
		Long: `Write a consistent snapshot of the database.

The snapshot is sealed with AES-256-GCM when ` + passphraseEnv + ` is set.
It is safe to run while the server is running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(a.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			passphrase := os.Getenv(passphraseEnv)
			size, err := backup.Snapshot(cmd.Context(), db, out, passphrase)
			if err != nil {
				return err
			}
			a.logger.Info("snapshot written", "file", out, "bytes", size, "sealed", passphrase != "")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, size)
			return nil
		},
	}
	create.Flags().StringVarP(&out, "out", "o", "", "snapshot file to create")
	_ = create.MarkFlagRequired("out")

	var in string
	restore := &cobra.Command{
		Use:   "restore",
		Short: "Replace the database with a snapshot (server must be stopped)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := backup.Restore(cmd.Context(), in, a.cfg.Database.Path, os.Getenv(passphraseEnv)); err != nil {
				return err
			}
			a.logger.Info("database restored", "from", in, "db", a.cfg.Database.Path)
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", a.cfg.Database.Path, in)
			return nil
		},
	}
	restore.Flags().StringVarP(&in, "in", "i", "", "snapshot file to restore")
	_ = restore.MarkFlagRequired("in")

	cmd.AddCommand(create, restore)
	return cmd
}
