package migrations

func init() {
	Register(Migration{
		Revision: "5d77b2e9a034",
		Parents:  []string{"92a3f6c04e1b"},
		Label:    "Add nutrition logs and pharmacy orders",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS nutrition_logs (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				logged_at TEXT NOT NULL,
				meal TEXT NOT NULL,
				description TEXT,
				calories_kcal REAL NOT NULL DEFAULT 0,
				protein_g REAL NOT NULL DEFAULT 0,
				carbs_g REAL NOT NULL DEFAULT 0,
				fat_g REAL NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_nutrition_logs_user_date ON nutrition_logs(user_id, logged_at)`,

			// status: placed, shipped, delivered, cancelled
			`CREATE TABLE IF NOT EXISTS pharmacy_orders (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				medication TEXT NOT NULL,
				dosage TEXT,
				quantity INTEGER NOT NULL DEFAULT 1,
				status TEXT NOT NULL DEFAULT 'placed',
				ordered_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_pharmacy_orders_user_id ON pharmacy_orders(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_pharmacy_orders_status ON pharmacy_orders(status)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_pharmacy_orders_status`,
			`DROP INDEX IF EXISTS idx_pharmacy_orders_user_id`,
			`DROP TABLE IF EXISTS pharmacy_orders`,
			`DROP INDEX IF EXISTS idx_nutrition_logs_user_date`,
			`DROP TABLE IF EXISTS nutrition_logs`,
		},
	})
}
