package migrations

func init() {
	Register(Migration{
		Revision: "7e82da615f40",
		Parents:  []string{"b1f4c09a3d52"},
		Label:    "Add doctors directory",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS doctors (
				id TEXT PRIMARY KEY,
				full_name TEXT NOT NULL,
				specialty TEXT NOT NULL,
				clinic TEXT,
				email TEXT,
				phone TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_doctors_specialty ON doctors(specialty)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_doctors_specialty`,
			`DROP TABLE IF EXISTS doctors`,
		},
	})
}
