// Package schema keeps the relational backing store in step with
// declared models: it introspects the physical catalog, maps declared
// type expressions to storage types, diffs models against the observed
// schema, and applies additive corrective statements through an
// idempotent, transactional ledger.
package schema

import (
	"fmt"
	"time"
)

// Column is the observed shape of one physical column.
type Column struct {
	Name       string  `json:"name"`
	Position   int     `json:"position"`
	DataType   string  `json:"data_type"` // as reported by information_schema
	IsNullable bool    `json:"is_nullable"`
	Default    *string `json:"default,omitempty"`
	Indexed    bool    `json:"indexed,omitempty"`
}

// Snapshot is a point-in-time read of a table's column shape. It is
// produced by introspection and never mutated afterwards.
type Snapshot struct {
	Table   string             `json:"table"`
	Exists  bool               `json:"exists"`
	Columns map[string]*Column `json:"columns,omitempty"`
}

// TypeMismatch records a column whose observed storage type disagrees
// with the model's mapped type. Mismatches are reported for manual
// review, never auto-fixed.
type TypeMismatch struct {
	Column   string `json:"column"`
	Declared string `json:"declared"` // mapped storage type
	Observed string `json:"observed"` // normalized physical type
}

// Discrepancy is the structured difference between a model and the
// physical schema backing it.
type Discrepancy struct {
	Model          string         `json:"model"`
	Table          string         `json:"table"`
	TableMissing   bool           `json:"table_missing"`
	MissingColumns []string       `json:"missing_columns,omitempty"` // declaration order
	TypeMismatches []TypeMismatch `json:"type_mismatches,omitempty"`
	ExtraColumns   []string       `json:"extra_columns,omitempty"` // informational only
}

// IsClean reports whether model and physical schema agree, extra
// physical columns included (they are informational).
func (d *Discrepancy) IsClean() bool {
	return !d.TableMissing &&
		len(d.MissingColumns) == 0 &&
		len(d.TypeMismatches) == 0 &&
		len(d.ExtraColumns) == 0
}

// NeedsFix reports whether the discrepancy has anything an additive
// statement can correct.
func (d *Discrepancy) NeedsFix() bool {
	return d.TableMissing || len(d.MissingColumns) > 0
}

// ActionKind tags a corrective action so callers handle the
// additive-vs-review split exhaustively.
type ActionKind string

const (
	// ActionAdditive is a safe statement the ledger may execute.
	ActionAdditive ActionKind = "additive"
	// ActionRequiresReview flags a change that would be destructive or
	// ambiguous; no statement is generated for it.
	ActionRequiresReview ActionKind = "requires_review"
)

// Action is one element of a migration unit: either an additive SQL
// statement or a finding that needs a human decision.
type Action struct {
	Kind      ActionKind `json:"kind"`
	Statement string     `json:"statement,omitempty"` // additive only
	Column    string     `json:"column,omitempty"`
	Reason    string     `json:"reason,omitempty"` // review only
}

// Unit is an ordered set of additive corrective statements derived from
// one discrepancy. Units are immutable after creation: a changed
// discrepancy produces a new unit with a new identifier.
type Unit struct {
	ID        string     `json:"id"` // stable content identifier
	Model     string     `json:"model"`
	Table     string     `json:"table"`
	Actions   []Action   `json:"actions"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// Statements returns the additive SQL statements in order.
func (u *Unit) Statements() []string {
	var stmts []string
	for _, a := range u.Actions {
		if a.Kind == ActionAdditive {
			stmts = append(stmts, a.Statement)
		}
	}
	return stmts
}

// Review returns the actions flagged for manual review.
func (u *Unit) Review() []Action {
	var review []Action
	for _, a := range u.Actions {
		if a.Kind == ActionRequiresReview {
			review = append(review, a)
		}
	}
	return review
}

// Empty reports whether the unit carries no executable statements.
func (u *Unit) Empty() bool { return len(u.Statements()) == 0 }

// ReconciliationError reports a change reconciliation refuses to
// perform automatically, such as deriving a storage type from an
// ambiguous union or narrowing an existing column.
type ReconciliationError struct {
	Model  string
	Field  string
	Reason string
}

func (e *ReconciliationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("reconciliation: model %q field %q: %s", e.Model, e.Field, e.Reason)
	}
	return fmt.Sprintf("reconciliation: model %q: %s", e.Model, e.Reason)
}

// MigrationError reports a statement failure during unit application.
// The whole unit was rolled back and the ledger left unchanged.
type MigrationError struct {
	UnitID    string
	Index     int // index of the failing statement within the unit
	Statement string
	Err       error
}

func (e *MigrationError) Error() string {
	if e.UnitID == "" {
		return fmt.Sprintf("migration: statement %d failed: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("migration unit %s: statement %d failed: %v", shortID(e.UnitID), e.Index, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
