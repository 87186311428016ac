package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thornlink/thorn/backend/config"
	"github.com/thornlink/thorn/backend/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDB(func(_ *config.Config, db *database.DB) error {
					if err := database.RunMigrations(db.DB); err != nil {
						return fmt.Errorf("migrating: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDB(func(_ *config.Config, db *database.DB) error {
					name, err := database.RollbackLast(db.DB)
					if err != nil {
						return err
					}
					if name == "" {
						fmt.Fprintln(cmd.OutOrStdout(), "No migrations to roll back.")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s\n", name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the migrations embedded in this binary",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				names, err := database.Migrations()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
				}
				return nil
			},
		},
	)
	return migrateCmd
}
