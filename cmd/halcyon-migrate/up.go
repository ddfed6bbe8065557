package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/halcyonhealth/halcyon-api/internal/database/migrations"
)

var upTarget string

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply migrations forward from the database marker to a target
revision. Without --to the target is the chain head.

Already-applied steps are skipped; a database already at or past the
target is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := migrations.Load()
		if err != nil {
			return fmt.Errorf("failed to load migration chain: %w", err)
		}

		target := upTarget
		if target == "" {
			target, err = g.Head()
			if err != nil {
				return err
			}
		}

		before, err := migrations.Current(db)
		if err != nil {
			return fmt.Errorf("failed to read revision marker: %w", err)
		}

		if err := g.Upgrade(db, target, slog.Default()); err != nil {
			return err
		}

		after, err := migrations.Current(db)
		if err != nil {
			return fmt.Errorf("failed to read revision marker: %w", err)
		}
		if before == after {
			fmt.Printf("already at %s, nothing to do\n", displayRevision(after))
		} else {
			fmt.Printf("upgraded %s -> %s\n", displayRevision(before), displayRevision(after))
		}
		return nil
	},
}

func init() {
	upCmd.Flags().StringVar(&upTarget, "to", "", "target revision (defaults to the chain head)")
}

func displayRevision(rev string) string {
	if rev == "" {
		return "<empty>"
	}
	return rev
}
