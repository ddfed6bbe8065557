// Package migrations defines the schema evolution ledger: an append-only
// chain of migration steps linked by explicit parent pointers. The chain,
// not file names or authoring timestamps, is the only ordering authority;
// steps authored concurrently are reconciled by explicit merge steps.
//
// Each step declares a unique revision, the revision(s) it must follow,
// and an Up/Down pair of SQL actions that are exact inverses of each other.
// The inverse property is an authoring contract; it is exercised by the
// round-trip tests but not verified statically.
package migrations

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Migration is a single step in the schema evolution chain.
type Migration struct {
	// Revision is an opaque unique identifier assigned at authoring time.
	Revision string
	// Parents lists the revision(s) that must be applied immediately
	// before this step. Empty for the root step only. A step with more
	// than one parent is a merge step reconciling divergent heads.
	Parents []string
	// Label is a human-readable description.
	Label string
	// Up contains the forward schema transformation.
	Up []string
	// Down contains the exact inverse of Up.
	Down []string
}

// IsMerge reports whether the step reconciles more than one parent.
func (m Migration) IsMerge() bool { return len(m.Parents) > 1 }

// registry holds all registered steps.
// Populated by init() functions in the per-step files.
var registry []Migration

// Register adds a step to the registry.
func Register(m Migration) {
	registry = append(registry, m)
}

// Graph is the validated revision graph built from a set of steps.
type Graph struct {
	steps    map[string]Migration
	children map[string][]string
	root     string
}

// Load builds and validates the graph from all registered steps.
func Load() (*Graph, error) {
	return NewGraph(registry)
}

// NewGraph builds and validates a graph from an explicit step set.
// A graph with multiple heads is valid but divergent; divergence is
// reported only when a caller asks for "the" head.
func NewGraph(steps []Migration) (*Graph, error) {
	g := &Graph{
		steps:    make(map[string]Migration, len(steps)),
		children: make(map[string][]string),
	}

	for _, m := range steps {
		if m.Revision == "" {
			return nil, fmt.Errorf("migration %q has an empty revision", m.Label)
		}
		if _, dup := g.steps[m.Revision]; dup {
			return nil, fmt.Errorf("duplicate revision %s", m.Revision)
		}
		g.steps[m.Revision] = m
	}

	for rev, m := range g.steps {
		if len(m.Parents) == 0 {
			if g.root != "" {
				return nil, fmt.Errorf("multiple root revisions: %s and %s", g.root, rev)
			}
			g.root = rev
			continue
		}
		for _, p := range m.Parents {
			if _, ok := g.steps[p]; !ok {
				return nil, fmt.Errorf("revision %s references unknown parent %s", rev, p)
			}
			g.children[p] = append(g.children[p], rev)
		}
	}

	if g.root == "" && len(g.steps) > 0 {
		return nil, fmt.Errorf("no root revision found")
	}

	// Cycle check: a topological order over the whole graph must cover
	// every step.
	if order := g.topoOrder(g.steps); len(order) != len(g.steps) {
		return nil, fmt.Errorf("revision graph contains a cycle")
	}

	return g, nil
}

// Heads returns every revision no step declares as a parent, sorted.
func (g *Graph) Heads() []string {
	var heads []string
	for rev := range g.steps {
		if len(g.children[rev]) == 0 {
			heads = append(heads, rev)
		}
	}
	sort.Strings(heads)
	return heads
}

// Head returns the single chain tip. A divergent graph (more than one
// head) must be reconciled by an explicit merge step before the tip can
// be resolved implicitly.
func (g *Graph) Head() (string, error) {
	heads := g.Heads()
	switch len(heads) {
	case 0:
		return "", fmt.Errorf("revision graph is empty")
	case 1:
		return heads[0], nil
	default:
		return "", &DivergentHistoryError{Heads: heads}
	}
}

// Step returns the step for a revision.
func (g *Graph) Step(rev string) (Migration, bool) {
	m, ok := g.steps[rev]
	return m, ok
}

// ancestors returns the inclusive ancestor set of rev, following all
// parent pointers (both sides of a merge). rev == "" yields an empty set.
func (g *Graph) ancestors(rev string) map[string]bool {
	set := make(map[string]bool)
	if rev == "" {
		return set
	}
	stack := []string{rev}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if set[r] {
			continue
		}
		set[r] = true
		stack = append(stack, g.steps[r].Parents...)
	}
	return set
}

// topoOrder returns a deterministic topological order of the given step
// subset: parents before children, ties broken by revision string.
func (g *Graph) topoOrder(subset map[string]Migration) []string {
	indeg := make(map[string]int, len(subset))
	for rev, m := range subset {
		if _, ok := indeg[rev]; !ok {
			indeg[rev] = 0
		}
		for _, p := range m.Parents {
			if _, in := subset[p]; in {
				indeg[rev]++
			}
		}
	}

	var ready []string
	for rev, d := range indeg {
		if d == 0 {
			ready = append(ready, rev)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(subset))
	for len(ready) > 0 {
		rev := ready[0]
		ready = ready[1:]
		order = append(order, rev)

		var unlocked []string
		for _, c := range g.children[rev] {
			if _, in := subset[c]; !in {
				continue
			}
			indeg[c]--
			if indeg[c] == 0 {
				unlocked = append(unlocked, c)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}
	return order
}

// upgradePlan returns the steps to apply, in order, to move from revision
// `from` to revision `to`. `from` == "" means an unversioned database.
func (g *Graph) upgradePlan(from, to string) ([]Migration, error) {
	if _, ok := g.steps[to]; !ok {
		return nil, &UnknownRevisionError{Revision: to}
	}
	toSet := g.ancestors(to)
	if from != "" {
		if _, ok := g.steps[from]; !ok {
			return nil, &UnknownRevisionError{Revision: from}
		}
		if !toSet[from] {
			return nil, &UnreachableRevisionError{Current: from, Target: to}
		}
	}

	pending := make(map[string]Migration)
	fromSet := g.ancestors(from)
	for rev := range toSet {
		if !fromSet[rev] {
			pending[rev] = g.steps[rev]
		}
	}

	var plan []Migration
	for _, rev := range g.topoOrder(pending) {
		plan = append(plan, g.steps[rev])
	}
	return plan, nil
}

// downgradePlan returns the steps whose Down actions move the database
// from revision `from` back to revision `to` (exclusive). `to` == ""
// unwinds the whole chain, root included.
func (g *Graph) downgradePlan(from, to string) ([]Migration, error) {
	if from == "" {
		return nil, &UnreachableRevisionError{Current: from, Target: to}
	}
	if _, ok := g.steps[from]; !ok {
		return nil, &UnknownRevisionError{Revision: from}
	}
	fromSet := g.ancestors(from)
	if to != "" {
		if _, ok := g.steps[to]; !ok {
			return nil, &UnknownRevisionError{Revision: to}
		}
		if !fromSet[to] {
			return nil, &UnreachableRevisionError{Current: from, Target: to}
		}
	}

	pending := make(map[string]Migration)
	toSet := g.ancestors(to)
	for rev := range fromSet {
		if !toSet[rev] {
			pending[rev] = g.steps[rev]
		}
	}

	order := g.topoOrder(pending)
	plan := make([]Migration, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		plan = append(plan, g.steps[order[i]])
	}
	return plan, nil
}

// ensureLedgerTables creates the revision marker and audit tables.
// schema_revision holds the single scalar marker the ledger reads and
// writes; schema_steps is an audit trail consulted by Status only.
func ensureLedgerTables(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_revision (
			id INTEGER PRIMARY KEY CHECK (id = 0),
			revision TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_revision table: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_steps (
			revision TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_steps table: %w", err)
	}
	return nil
}

// Current returns the revision marker persisted in the database, or ""
// when the database is unversioned.
func Current(db *sql.DB) (string, error) {
	if err := ensureLedgerTables(db); err != nil {
		return "", err
	}
	var rev string
	err := db.QueryRow("SELECT revision FROM schema_revision WHERE id = 0").Scan(&rev)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read revision marker: %w", err)
	}
	return rev, nil
}

// Run upgrades the database to the chain tip. This is the deployment
// entry point used by the server at startup.
func Run(db *sql.DB, logger *slog.Logger) error {
	g, err := Load()
	if err != nil {
		return err
	}
	head, err := g.Head()
	if err != nil {
		return err
	}
	return g.Upgrade(db, head, logger)
}

// Upgrade applies every step between the database's current revision and
// target, in chain order, advancing the revision marker after each step.
// Chain-structure errors are reported before any action executes.
func (g *Graph) Upgrade(db *sql.DB, target string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ensureLedgerTables(db); err != nil {
		return err
	}
	current, err := Current(db)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}

	plan, err := g.upgradePlan(current, target)
	if err != nil {
		return err
	}

	for _, m := range plan {
		logger.Info("applying migration", "revision", m.Revision, "label", m.Label)
		if err := applyStep(db, m, directionUp); err != nil {
			return &StepError{Revision: m.Revision, Err: err}
		}
	}

	logger.Info("schema upgraded", "revision", target, "steps", len(plan))
	return nil
}

// Downgrade runs Down actions in reverse chain order from the current
// revision down to, but not including, target. target == "" unwinds the
// whole chain and leaves the database unversioned.
func (g *Graph) Downgrade(db *sql.DB, target string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ensureLedgerTables(db); err != nil {
		return err
	}
	current, err := Current(db)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}

	plan, err := g.downgradePlan(current, target)
	if err != nil {
		return err
	}

	for _, m := range plan {
		logger.Info("reverting migration", "revision", m.Revision, "label", m.Label)
		if err := revertStep(g, db, m, target); err != nil {
			return &StepError{Revision: m.Revision, Err: err}
		}
	}

	logger.Info("schema downgraded", "revision", target, "steps", len(plan))
	return nil
}

type direction string

const (
	directionUp   direction = "up"
	directionDown direction = "down"
)

// applyStep executes a step's Up actions and advances the revision marker
// inside one transaction. On failure the marker is untouched, so a retry
// after fixing the cause resumes from the same revision.
func applyStep(db *sql.DB, m Migration, _ direction) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Up {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\n%s", err, stmt)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO schema_revision (id, revision) VALUES (0, ?)
		ON CONFLICT(id) DO UPDATE SET revision = excluded.revision
	`, m.Revision); err != nil {
		return fmt.Errorf("failed to advance revision marker: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_steps (revision, label, applied_at) VALUES (?, ?, ?)",
		m.Revision, m.Label, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}

	return tx.Commit()
}

// revertStep executes a step's Down actions and moves the marker to the
// revision that precedes the step on the path toward target.
func revertStep(g *Graph, db *sql.DB, m Migration, target string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Down {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\n%s", err, stmt)
		}
	}

	prev := g.markerAfterRevert(m, target)
	if prev == "" {
		if _, err := tx.Exec("DELETE FROM schema_revision WHERE id = 0"); err != nil {
			return fmt.Errorf("failed to clear revision marker: %w", err)
		}
	} else {
		if _, err := tx.Exec(`
			INSERT INTO schema_revision (id, revision) VALUES (0, ?)
			ON CONFLICT(id) DO UPDATE SET revision = excluded.revision
		`, prev); err != nil {
			return fmt.Errorf("failed to move revision marker: %w", err)
		}
	}
	if _, err := tx.Exec("DELETE FROM schema_steps WHERE revision = ?", m.Revision); err != nil {
		return fmt.Errorf("failed to delete step record: %w", err)
	}

	return tx.Commit()
}

// markerAfterRevert picks the marker value after reverting m while moving
// toward target: the parent of m that still leads to target, or "" when
// the root itself was reverted.
func (g *Graph) markerAfterRevert(m Migration, target string) string {
	if len(m.Parents) == 0 {
		return ""
	}
	if target != "" {
		for _, p := range m.Parents {
			if g.ancestors(p)[target] {
				return p
			}
		}
	}
	parents := append([]string(nil), m.Parents...)
	sort.Strings(parents)
	return parents[0]
}

// AppliedStep is one row of the ledger's audit trail.
type AppliedStep struct {
	Revision  string
	Label     string
	AppliedAt time.Time
}

// Status returns the audit trail of applied steps, oldest first.
func Status(db *sql.DB) ([]AppliedStep, error) {
	if err := ensureLedgerTables(db); err != nil {
		return nil, err
	}
	rows, err := db.Query("SELECT revision, label, applied_at FROM schema_steps ORDER BY applied_at, revision")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var steps []AppliedStep
	for rows.Next() {
		var s AppliedStep
		var appliedAt string
		if err := rows.Scan(&s.Revision, &s.Label, &appliedAt); err != nil {
			return nil, err
		}
		s.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt)
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// Pending returns registered steps not yet applied to the database, in
// chain order toward the resolved head.
func Pending(db *sql.DB) ([]Migration, error) {
	g, err := Load()
	if err != nil {
		return nil, err
	}
	head, err := g.Head()
	if err != nil {
		return nil, err
	}
	current, err := Current(db)
	if err != nil {
		return nil, err
	}
	if current == head {
		return nil, nil
	}
	return g.upgradePlan(current, head)
}
