package migrations

func init() {
	Register(Migration{
		Revision: "b1f4c09a3d52",
		Label:    "Initial schema: users and API keys",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				display_name TEXT NOT NULL,
				date_of_birth TEXT,
				sex TEXT,
				height_cm REAL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

			// API keys - for programmatic access (mobile clients, partners)
			`CREATE TABLE IF NOT EXISTS api_keys (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				key_hash TEXT UNIQUE NOT NULL,
				key_prefix TEXT NOT NULL,
				last_used_at TEXT,
				created_at TEXT NOT NULL,
				revoked_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_api_keys_user_id ON api_keys(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_api_keys_key_hash ON api_keys(key_hash)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_api_keys_key_hash`,
			`DROP INDEX IF EXISTS idx_api_keys_user_id`,
			`DROP TABLE IF EXISTS api_keys`,
			`DROP INDEX IF EXISTS idx_users_email`,
			`DROP TABLE IF EXISTS users`,
		},
	})
}
