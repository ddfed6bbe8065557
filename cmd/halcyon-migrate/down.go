package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/halcyonhealth/halcyon-api/internal/database/migrations"
)

var downTarget string

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert migrations back to a revision",
	Long: `Revert applied migrations from the database marker back to the
--to revision, running each step's down statements in reverse chain
order. The target revision itself stays applied. An explicit empty
target (--to "") unwinds everything back to the unversioned state.

Reverting is refused when the marker is not an ancestor path to the
target, so a diverged database cannot be silently rewritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("to") {
			return fmt.Errorf("--to is required: refusing to revert the entire schema by default")
		}

		g, err := migrations.Load()
		if err != nil {
			return fmt.Errorf("failed to load migration chain: %w", err)
		}

		before, err := migrations.Current(db)
		if err != nil {
			return fmt.Errorf("failed to read revision marker: %w", err)
		}

		if err := g.Downgrade(db, downTarget, slog.Default()); err != nil {
			return err
		}

		after, err := migrations.Current(db)
		if err != nil {
			return fmt.Errorf("failed to read revision marker: %w", err)
		}
		if before == after {
			fmt.Printf("already at %s, nothing to do\n", displayRevision(after))
		} else {
			fmt.Printf("downgraded %s -> %s\n", displayRevision(before), displayRevision(after))
		}
		return nil
	},
}

func init() {
	downCmd.Flags().StringVar(&downTarget, "to", "", "target revision to walk back to")
}
