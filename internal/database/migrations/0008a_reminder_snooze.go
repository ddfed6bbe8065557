package migrations

// Authored concurrently with e16a40d7c3f9's other descendant; reconciled
// by merge step f4b86e2d19c0.
func init() {
	Register(Migration{
		Revision: "38c5a91e67d2",
		Parents:  []string{"e16a40d7c3f9"},
		Label:    "Add reminder snooze support",
		Up: []string{
			`ALTER TABLE reminders ADD COLUMN snoozed_until TEXT`,
		},
		Down: []string{
			`ALTER TABLE reminders DROP COLUMN snoozed_until`,
		},
	})
}
