// Package cli implements thornctl, the operator tool for a Thorn deployment.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/thornlink/thorn/backend/config"
	"github.com/thornlink/thorn/backend/internal/database"
)

// app carries what the commands share. Tests replace the loaders.
type app struct {
	loadConfig func() (*config.Config, error)
	openDB     func(*config.Config) (*database.DB, error)
}

// NewRootCmd builds the thornctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		loadConfig: config.LoadConfig,
		openDB:     database.New,
	})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "thornctl",
		Short: "Operate a Thorn biolink deployment",
		Long: `thornctl runs schema migrations, seeds demo profiles, issues identity
tokens for local testing and manages the media bucket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newVerifyCmd(a),
		newTokenCmd(a),
		newMediaPolicyCmd(a),
	)
	return root
}

// Execute runs thornctl with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// withDB loads the configuration and opens the database for the duration
// of fn.
func (a *app) withDB(fn func(*config.Config, *database.DB) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	db, err := a.openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}
