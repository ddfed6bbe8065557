package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyonhealth/halcyon-api/internal/database/migrations"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the database revision marker",
	RunE: func(cmd *cobra.Command, args []string) error {
		rev, err := migrations.Current(db)
		if err != nil {
			return fmt.Errorf("failed to read revision marker: %w", err)
		}
		fmt.Println(displayRevision(rev))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied steps and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		rev, err := migrations.Current(db)
		if err != nil {
			return fmt.Errorf("failed to read revision marker: %w", err)
		}
		fmt.Printf("revision: %s\n", displayRevision(rev))

		steps, err := migrations.Status(db)
		if err != nil {
			return fmt.Errorf("failed to read step audit: %w", err)
		}
		fmt.Printf("applied steps: %d\n", len(steps))
		for _, s := range steps {
			fmt.Printf("  %s  %s  %s\n", s.Revision, s.AppliedAt.Format(time.RFC3339), s.Label)
		}

		pending, err := migrations.Pending(db)
		if err != nil {
			return fmt.Errorf("failed to compute pending migrations: %w", err)
		}
		fmt.Printf("pending: %d\n", len(pending))
		for _, m := range pending {
			fmt.Printf("  %s  %s\n", m.Revision, m.Label)
		}
		return nil
	},
}

var headsCmd = &cobra.Command{
	Use:   "heads",
	Short: "Print the chain tip(s)",
	Long: `Print every registered revision without children. A healthy
chain has exactly one head; more than one means parallel branches need
a merge revision before upgrades can resolve a single target.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := migrations.Load()
		if err != nil {
			return fmt.Errorf("failed to load migration chain: %w", err)
		}
		for _, h := range g.Heads() {
			fmt.Println(h)
		}
		return nil
	},
}
