package migrations

func init() {
	Register(Migration{
		Revision: "92a3f6c04e1b",
		Parents:  []string{"d05b118a9c67"},
		Label:    "Add lab reports and LOINC-coded results",
		Up: []string{
			// file_key points at the original report document in object storage
			`CREATE TABLE IF NOT EXISTS lab_reports (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				lab_name TEXT,
				file_key TEXT,
				status TEXT NOT NULL DEFAULT 'pending',
				reported_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_lab_reports_user_id ON lab_reports(user_id)`,

			`CREATE TABLE IF NOT EXISTS lab_results (
				id TEXT PRIMARY KEY,
				report_id TEXT NOT NULL REFERENCES lab_reports(id) ON DELETE CASCADE,
				loinc_code TEXT NOT NULL,
				name TEXT NOT NULL,
				value REAL NOT NULL,
				unit TEXT,
				reference_low REAL,
				reference_high REAL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_lab_results_report_id ON lab_results(report_id)`,
			`CREATE INDEX IF NOT EXISTS idx_lab_results_loinc ON lab_results(loinc_code)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_lab_results_loinc`,
			`DROP INDEX IF EXISTS idx_lab_results_report_id`,
			`DROP TABLE IF EXISTS lab_results`,
			`DROP INDEX IF EXISTS idx_lab_reports_user_id`,
			`DROP TABLE IF EXISTS lab_reports`,
		},
	})
}
