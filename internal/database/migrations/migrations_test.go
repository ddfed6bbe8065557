package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	_ "github.com/tursodatabase/go-libsql"
)

const shippedHead = "0c3d9a57f8e4"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// schemaShape returns a normalized description of every user-defined
// object, excluding the ledger's own bookkeeping tables.
func schemaShape(t *testing.T, db *sql.DB) string {
	t.Helper()

	rows, err := db.Query(`
		SELECT type, name, COALESCE(sql, '')
		FROM sqlite_master
		WHERE name NOT LIKE 'sqlite_%'
		  AND name NOT IN ('schema_revision', 'schema_steps')
		ORDER BY type, name
	`)
	if err != nil {
		t.Fatalf("failed to read sqlite_master: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var b strings.Builder
	for rows.Next() {
		var typ, name, ddl string
		if err := rows.Scan(&typ, &name, &ddl); err != nil {
			t.Fatalf("failed to scan sqlite_master row: %v", err)
		}
		fmt.Fprintf(&b, "%s %s %s\n", typ, name, ddl)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to iterate sqlite_master: %v", err)
	}
	return b.String()
}

func TestLoadShippedChain(t *testing.T) {
	g, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	head, err := g.Head()
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head != shippedHead {
		t.Errorf("head = %s, want %s", head, shippedHead)
	}

	// The shipped chain contains one reconciled divergence.
	merge, ok := g.Step("f4b86e2d19c0")
	if !ok {
		t.Fatal("merge step not registered")
	}
	if !merge.IsMerge() {
		t.Error("merge step should have multiple parents")
	}
}

func TestRunUpgradesToHead(t *testing.T) {
	db := openTestDB(t)

	if err := Run(db, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	current, err := Current(db)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current != shippedHead {
		t.Errorf("current = %s, want %s", current, shippedHead)
	}

	// Spot-check that the fold of all steps produced the full schema.
	for _, table := range []string{
		"users", "api_keys", "doctors", "reminders",
		"chat_sessions", "chat_messages", "lab_reports", "lab_results",
		"nutrition_logs", "pharmacy_orders", "device_connections",
		"metric_samples", "health_scores", "metric_mappings",
	} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after upgrade: %v", table, err)
		}
	}

	// Run again: no pending steps, no error.
	if err := Run(db, nil); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
}

func TestCurrentOnUnversionedDatabase(t *testing.T) {
	db := openTestDB(t)

	current, err := Current(db)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current != "" {
		t.Errorf("current = %q, want unversioned", current)
	}
}

func TestCurrentTracksEveryTarget(t *testing.T) {
	g, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	targets := []string{
		"b1f4c09a3d52", "7e82da615f40", "4c9eef27b810", "d05b118a9c67",
		"92a3f6c04e1b", "5d77b2e9a034", "e16a40d7c3f9", "f4b86e2d19c0",
		shippedHead,
	}

	db := openTestDB(t)
	for _, target := range targets {
		if err := g.Upgrade(db, target, nil); err != nil {
			t.Fatalf("Upgrade(%s) failed: %v", target, err)
		}
		current, err := Current(db)
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if current != target {
			t.Errorf("after Upgrade(%s): current = %s", target, current)
		}
	}
}

func TestUpgradeDowngradeRoundTrip(t *testing.T) {
	g, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	db := openTestDB(t)
	before := schemaShape(t, db)

	if err := g.Upgrade(db, shippedHead, nil); err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	upgraded := schemaShape(t, db)
	if upgraded == before {
		t.Fatal("upgrade did not change schema shape")
	}

	// Downgrade past the root returns the database to its pre-upgrade
	// shape and leaves it unversioned.
	if err := g.Downgrade(db, "", nil); err != nil {
		t.Fatalf("Downgrade failed: %v", err)
	}
	if after := schemaShape(t, db); after != before {
		t.Errorf("round trip changed schema shape:\nbefore:\n%s\nafter:\n%s", before, after)
	}
	current, err := Current(db)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current != "" {
		t.Errorf("current = %q after full downgrade, want unversioned", current)
	}
}

func TestDowngradeThenUpgradeIsNoop(t *testing.T) {
	g, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	db := openTestDB(t)
	if err := g.Upgrade(db, shippedHead, nil); err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	at := schemaShape(t, db)

	const intermediate = "92a3f6c04e1b"
	if err := g.Downgrade(db, intermediate, nil); err != nil {
		t.Fatalf("Downgrade failed: %v", err)
	}
	current, _ := Current(db)
	if current != intermediate {
		t.Fatalf("current = %s after downgrade, want %s", current, intermediate)
	}

	if err := g.Upgrade(db, shippedHead, nil); err != nil {
		t.Fatalf("re-Upgrade failed: %v", err)
	}
	if after := schemaShape(t, db); after != at {
		t.Errorf("downgrade/upgrade round trip changed schema shape")
	}
}

func TestUpgradeToAncestorIsUnreachable(t *testing.T) {
	g, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	db := openTestDB(t)
	if err := g.Upgrade(db, shippedHead, nil); err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}

	err = g.Upgrade(db, "b1f4c09a3d52", nil)
	var unreachable *UnreachableRevisionError
	if !errors.As(err, &unreachable) {
		t.Fatalf("err = %v, want UnreachableRevisionError", err)
	}

	// Structure errors are reported before touching the database.
	current, _ := Current(db)
	if current != shippedHead {
		t.Errorf("current moved to %s on a rejected upgrade", current)
	}
}

func divergentSteps() []Migration {
	return []Migration{
		{
			Revision: "r0",
			Label:    "root",
			Up:       []string{`CREATE TABLE IF NOT EXISTS t_root (id TEXT PRIMARY KEY)`},
			Down:     []string{`DROP TABLE IF EXISTS t_root`},
		},
		{
			Revision: "ra",
			Parents:  []string{"r0"},
			Label:    "branch a",
			Up:       []string{`CREATE TABLE IF NOT EXISTS t_a (id TEXT PRIMARY KEY)`},
			Down:     []string{`DROP TABLE IF EXISTS t_a`},
		},
		{
			Revision: "rb",
			Parents:  []string{"r0"},
			Label:    "branch b",
			Up:       []string{`CREATE TABLE IF NOT EXISTS t_b (id TEXT PRIMARY KEY)`},
			Down:     []string{`DROP TABLE IF EXISTS t_b`},
		},
	}
}

func TestDivergentHeadsRequireExplicitTarget(t *testing.T) {
	g, err := NewGraph(divergentSteps())
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	_, err = g.Head()
	var divergent *DivergentHistoryError
	if !errors.As(err, &divergent) {
		t.Fatalf("Head err = %v, want DivergentHistoryError", err)
	}
	if len(divergent.Heads) != 2 {
		t.Errorf("heads = %v, want 2 entries", divergent.Heads)
	}

	// Either tip individually is a valid upgrade target.
	for _, tip := range []string{"ra", "rb"} {
		db := openTestDB(t)
		if err := g.Upgrade(db, tip, nil); err != nil {
			t.Errorf("Upgrade(%s) failed: %v", tip, err)
		}
		current, _ := Current(db)
		if current != tip {
			t.Errorf("current = %s, want %s", current, tip)
		}
	}
}

func TestMergeStepReconcilesHeads(t *testing.T) {
	steps := append(divergentSteps(), Migration{
		Revision: "rm",
		Parents:  []string{"ra", "rb"},
		Label:    "merge",
	})
	g, err := NewGraph(steps)
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	head, err := g.Head()
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head != "rm" {
		t.Errorf("head = %s, want rm", head)
	}

	// Upgrading through the merge applies both branches.
	db := openTestDB(t)
	if err := g.Upgrade(db, "rm", nil); err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	for _, table := range []string{"t_root", "t_a", "t_b"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after merge upgrade: %v", table, err)
		}
	}

	// And downgrading back across the merge unwinds both.
	if err := g.Downgrade(db, "r0", nil); err != nil {
		t.Fatalf("Downgrade failed: %v", err)
	}
	for _, table := range []string{"t_a", "t_b"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != sql.ErrNoRows {
			t.Errorf("table %s still present after downgrade (err = %v)", table, err)
		}
	}
}

func TestDowngradeAcrossBranchesIsUnreachable(t *testing.T) {
	g, err := NewGraph(divergentSteps())
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	db := openTestDB(t)
	if err := g.Upgrade(db, "ra", nil); err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}

	err = g.Downgrade(db, "rb", nil)
	var unreachable *UnreachableRevisionError
	if !errors.As(err, &unreachable) {
		t.Errorf("err = %v, want UnreachableRevisionError", err)
	}
}

func TestGraphValidation(t *testing.T) {
	tests := []struct {
		name  string
		steps []Migration
	}{
		{
			name: "duplicate revision",
			steps: []Migration{
				{Revision: "r0"},
				{Revision: "r0"},
			},
		},
		{
			name: "unknown parent",
			steps: []Migration{
				{Revision: "r0"},
				{Revision: "r1", Parents: []string{"missing"}},
			},
		},
		{
			name: "two roots",
			steps: []Migration{
				{Revision: "r0"},
				{Revision: "r1"},
			},
		},
		{
			name: "cycle",
			steps: []Migration{
				{Revision: "r0"},
				{Revision: "r1", Parents: []string{"r2"}},
				{Revision: "r2", Parents: []string{"r1"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGraph(tt.steps); err == nil {
				t.Error("NewGraph accepted an invalid graph")
			}
		})
	}
}

func TestStepFailureDoesNotAdvanceMarker(t *testing.T) {
	g, err := NewGraph([]Migration{
		{
			Revision: "r0",
			Label:    "root",
			Up:       []string{`CREATE TABLE IF NOT EXISTS t_root (id TEXT PRIMARY KEY)`},
			Down:     []string{`DROP TABLE IF EXISTS t_root`},
		},
		{
			Revision: "r1",
			Parents:  []string{"r0"},
			Label:    "broken",
			Up:       []string{`THIS IS NOT SQL`},
		},
	})
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	db := openTestDB(t)
	err = g.Upgrade(db, "r1", nil)
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %v, want StepError", err)
	}
	if stepErr.Revision != "r1" {
		t.Errorf("failed revision = %s, want r1", stepErr.Revision)
	}

	// r0 committed, r1 did not; retry resumes from r0.
	current, _ := Current(db)
	if current != "r0" {
		t.Errorf("current = %s, want r0", current)
	}
}

func TestPendingReportsUnappliedSteps(t *testing.T) {
	db := openTestDB(t)

	pending, err := Pending(db)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != len(registry) {
		t.Errorf("pending = %d steps on fresh db, want %d", len(pending), len(registry))
	}

	if err := Run(db, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	pending, err = Pending(db)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d steps after Run, want 0", len(pending))
	}
}

func TestStatusAuditTrail(t *testing.T) {
	db := openTestDB(t)
	if err := Run(db, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	steps, err := Status(db)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(steps) != len(registry) {
		t.Errorf("status = %d steps, want %d", len(steps), len(registry))
	}
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		seen[s.Revision] = true
	}
	if !seen[shippedHead] {
		t.Error("head revision missing from audit trail")
	}
}
