package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyonhealth/halcyon-api/internal/database"
	"github.com/halcyonhealth/halcyon-api/internal/logging"
	"github.com/halcyonhealth/halcyon-api/internal/version"
)

var (
	databaseURL string
	db          *sql.DB
)

var rootCmd = &cobra.Command{
	Use:   "halcyon-migrate",
	Short: "Manage the halcyon-api schema revision ledger",
	Long: `halcyon-migrate applies, reverts and inspects the append-only
schema migration chain.

Revisions form a parent-linked chain; the database carries a single
revision marker plus an audit of every applied step. Upgrades walk
forward to a target (default: the chain head), downgrades walk back.

EXAMPLES:

  halcyon-migrate up                      # migrate to the chain head
  halcyon-migrate up --to 4b1d22c09a6f    # migrate to a revision
  halcyon-migrate down --to 9f3a71c2d54b  # walk back to a revision
  halcyon-migrate current                 # print the database marker
  halcyon-migrate status                  # applied steps + pending count
  halcyon-migrate heads                   # chain tip(s)

The database is selected with --database or the DATABASE_URL
environment variable.`,
	Version:       version.Get().Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		dsn := databaseURL
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		if dsn == "" {
			dsn = "file:halcyon.db?_journal=WAL&_timeout=5000"
		}

		var err error
		db, err = database.New(dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db != nil {
			return db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", "", "database DSN (defaults to DATABASE_URL)")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(headsCmd)

	logging.SetDefault()
}
