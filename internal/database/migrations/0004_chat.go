package migrations

func init() {
	Register(Migration{
		Revision: "d05b118a9c67",
		Parents:  []string{"4c9eef27b810"},
		Label:    "Add chat sessions and messages",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS chat_sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_id ON chat_sessions(user_id)`,

			// role: user, assistant
			`CREATE TABLE IF NOT EXISTS chat_messages (
				id TEXT PRIMARY KEY,
				session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_chat_messages_session_id ON chat_messages(session_id)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_chat_messages_session_id`,
			`DROP TABLE IF EXISTS chat_messages`,
			`DROP INDEX IF EXISTS idx_chat_sessions_user_id`,
			`DROP TABLE IF EXISTS chat_sessions`,
		},
	})
}
