package migrations

// Merge step: reconciles the two heads created when the snooze and
// webhook-secret steps were authored independently against the same
// parent. Carries no schema changes of its own.
func init() {
	Register(Migration{
		Revision: "f4b86e2d19c0",
		Parents:  []string{"38c5a91e67d2", "a7d30c8b54e6"},
		Label:    "Merge reminder snooze and device webhook secret heads",
		Up:       nil,
		Down:     nil,
	})
}
