package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choreboard/internal/catalog"
	"github.com/dukerupert/choreboard/internal/database"
)

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage the chore template marketplace",
	}

	var file string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load chore templates into the marketplace",
		Long: `Load chore templates into the marketplace.

Without --file the built-in catalogue is used. Templates are matched by
name, so running seed again updates existing templates in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := loadTemplates(file)
			if err != nil {
				return err
			}

			db, err := database.Open(a.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := catalog.Seed(cmd.Context(), db, templates)
			if err != nil {
				return err
			}
			a.logger.Info("templates seeded", "count", n)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d templates\n", n)
			return nil
		},
	}
	seed.Flags().StringVarP(&file, "file", "f", "", "YAML file of templates to load instead of the built-in catalogue")

	cmd.AddCommand(seed)
	return cmd
}

func loadTemplates(file string) ([]catalog.Template, error) {
	if file == "" {
		return catalog.Builtin()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return catalog.Parse(data)
}
