package migrations

func init() {
	Register(Migration{
		Revision: "4c9eef27b810",
		Parents:  []string{"7e82da615f40"},
		Label:    "Add reminders",
		Up: []string{
			// kind: medication, appointment, measurement
			`CREATE TABLE IF NOT EXISTS reminders (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				kind TEXT NOT NULL,
				title TEXT NOT NULL,
				notes TEXT,
				schedule TEXT NOT NULL,
				next_due_at TEXT,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reminders_user_id ON reminders(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(is_active, next_due_at)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_reminders_due`,
			`DROP INDEX IF EXISTS idx_reminders_user_id`,
			`DROP TABLE IF EXISTS reminders`,
		},
	})
}
