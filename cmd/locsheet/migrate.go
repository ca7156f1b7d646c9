package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/locsheet/internal/store/postgres"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(cfg.Database.URL, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := a.config()
				if err != nil {
					return err
				}
				return postgres.MigrateUp(cfg.Database.URL)
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := a.config()
				if err != nil {
					return err
				}
				version, dirty, ok, err := postgres.MigrationVersion(cfg.Database.URL)
				if err != nil {
					return err
				}
				switch {
				case !ok:
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				case dirty:
					fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
				default:
					fmt.Fprintln(cmd.OutOrStdout(), version)
				}
				return nil
			},
		},
	)
	return cmd
}
