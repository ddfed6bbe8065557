package migrations

// Authored concurrently with e16a40d7c3f9's other descendant; reconciled
// by merge step f4b86e2d19c0.
func init() {
	Register(Migration{
		Revision: "a7d30c8b54e6",
		Parents:  []string{"e16a40d7c3f9"},
		Label:    "Add per-connection webhook signing secret",
		Up: []string{
			`ALTER TABLE device_connections ADD COLUMN webhook_secret_encrypted TEXT`,
		},
		Down: []string{
			`ALTER TABLE device_connections DROP COLUMN webhook_secret_encrypted`,
		},
	})
}
