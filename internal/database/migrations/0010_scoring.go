package migrations

func init() {
	Register(Migration{
		Revision: "0c3d9a57f8e4",
		Parents:  []string{"f4b86e2d19c0"},
		Label:    "Add health scores and metric mapping table",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS health_scores (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				date TEXT NOT NULL,
				total INTEGER NOT NULL,
				vitals INTEGER,
				sleep INTEGER,
				activity INTEGER,
				biomarker INTEGER,
				unmapped_metrics INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				UNIQUE(user_id, date)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_health_scores_user_date ON health_scores(user_id, date)`,

			// Database-backed form of the canonical key registry. The
			// embedded static mapping remains the default source; this
			// table exists for deployments whose registry outgrows it.
			`CREATE TABLE IF NOT EXISTS metric_mappings (
				domain TEXT NOT NULL,
				external_key TEXT NOT NULL,
				canonical_key TEXT NOT NULL,
				PRIMARY KEY (domain, external_key)
			)`,
			`INSERT OR IGNORE INTO metric_mappings (domain, external_key, canonical_key) VALUES
				('biomarker', '4548-4', 'a1c_pct'),
				('biomarker', '2345-7', 'glucose_mgdl'),
				('biomarker', '2093-3', 'cholesterol_total'),
				('biomarker', '2085-9', 'hdl_mgdl'),
				('biomarker', '13457-7', 'ldl_mgdl'),
				('biomarker', '2571-8', 'triglycerides_mgdl'),
				('biomarker', '718-7', 'hemoglobin_gdl'),
				('biomarker', '2160-0', 'creatinine_mgdl'),
				('biomarker', '3016-3', 'tsh_miul'),
				('biomarker', '1988-5', 'crp_mgl')`,
		},
		Down: []string{
			`DROP TABLE IF EXISTS metric_mappings`,
			`DROP INDEX IF EXISTS idx_health_scores_user_date`,
			`DROP TABLE IF EXISTS health_scores`,
		},
	})
}
