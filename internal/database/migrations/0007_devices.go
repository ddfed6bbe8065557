package migrations

func init() {
	Register(Migration{
		Revision: "e16a40d7c3f9",
		Parents:  []string{"5d77b2e9a034"},
		Label:    "Add device connections and metric samples",
		Up: []string{
			// OAuth tokens are AES-256-GCM encrypted before storage.
			// status: connected, revoked, error
			`CREATE TABLE IF NOT EXISTS device_connections (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				vendor TEXT NOT NULL,
				external_user_id TEXT NOT NULL,
				access_token_encrypted TEXT,
				refresh_token_encrypted TEXT,
				scopes TEXT,
				status TEXT NOT NULL DEFAULT 'connected',
				last_synced_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE(user_id, vendor)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_device_connections_user_id ON device_connections(user_id)`,

			// external_name is the vendor's vocabulary; canonical_key is the
			// internal key resolved at ingest ('' when unmapped).
			`CREATE TABLE IF NOT EXISTS metric_samples (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				connection_id TEXT REFERENCES device_connections(id) ON DELETE SET NULL,
				domain TEXT NOT NULL,
				external_name TEXT NOT NULL,
				canonical_key TEXT NOT NULL DEFAULT '',
				value REAL NOT NULL,
				unit TEXT,
				recorded_at TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_metric_samples_user_recorded ON metric_samples(user_id, recorded_at)`,
			`CREATE INDEX IF NOT EXISTS idx_metric_samples_canonical ON metric_samples(user_id, canonical_key, recorded_at)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_metric_samples_canonical`,
			`DROP INDEX IF EXISTS idx_metric_samples_user_recorded`,
			`DROP TABLE IF EXISTS metric_samples`,
			`DROP INDEX IF EXISTS idx_device_connections_user_id`,
			`DROP TABLE IF EXISTS device_connections`,
		},
	})
}
