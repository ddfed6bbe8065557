package migrations

import (
	"fmt"
	"strings"
)

// UnknownRevisionError reports a revision that does not exist in the
// registered chain.
type UnknownRevisionError struct {
	Revision string
}

func (e *UnknownRevisionError) Error() string {
	return fmt.Sprintf("unknown revision %q", e.Revision)
}

// UnreachableRevisionError reports a target revision that cannot be
// reached from the current revision along parent links. No action has
// been taken against the database.
type UnreachableRevisionError struct {
	Current string
	Target  string
}

func (e *UnreachableRevisionError) Error() string {
	current := e.Current
	if current == "" {
		current = "<unversioned>"
	}
	target := e.Target
	if target == "" {
		target = "<unversioned>"
	}
	return fmt.Sprintf("revision %s is not reachable from %s", target, current)
}

// DivergentHistoryError reports an ambiguous chain tip: more than one
// head exists and no merge step reconciles them. No action has been taken
// against the database; an explicit merge step must be authored before
// retrying.
type DivergentHistoryError struct {
	Heads []string
}

func (e *DivergentHistoryError) Error() string {
	return fmt.Sprintf("divergent history: multiple heads [%s]; author a merge step or name an explicit target",
		strings.Join(e.Heads, ", "))
}

// StepError reports that the database rejected or aborted a step's
// actions. The revision marker was not advanced past the offending step,
// so a retry after fixing the underlying cause resumes correctly.
type StepError struct {
	Revision string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migration %s failed: %v", e.Revision, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
