package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnitStatementsAndReview(t *testing.T) {
	unit := &Unit{
		Actions: []Action{
			{Kind: ActionAdditive, Statement: "CREATE TABLE t (id uuid)"},
			{Kind: ActionRequiresReview, Column: "old", Reason: "undeclared"},
			{Kind: ActionAdditive, Statement: "CREATE INDEX i ON t (id)"},
		},
	}

	wantStmts := []string{
		"CREATE TABLE t (id uuid)",
		"CREATE INDEX i ON t (id)",
	}
	if diff := cmp.Diff(wantStmts, unit.Statements()); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
	if len(unit.Review()) != 1 || unit.Review()[0].Column != "old" {
		t.Errorf("review actions = %+v", unit.Review())
	}
	if unit.Empty() {
		t.Error("unit with statements reported empty")
	}

	reviewOnly := &Unit{Actions: []Action{{Kind: ActionRequiresReview, Column: "x"}}}
	if !reviewOnly.Empty() {
		t.Error("review-only unit not reported empty")
	}
}

func TestMigrationErrorFormatting(t *testing.T) {
	withID := &MigrationError{
		UnitID: "0123456789abcdef", Index: 2,
		Statement: "ALTER TABLE t ADD COLUMN c text",
		Err:       errors.New("boom"),
	}
	if got := withID.Error(); !strings.Contains(got, "unit 01234567") {
		t.Errorf("Error() = %q, want truncated unit id", got)
	}

	// Errors raised before an identifier exists must not render a blank
	// unit id.
	withoutID := &MigrationError{Index: 0, Statement: "nonsense", Err: errors.New("boom")}
	got := withoutID.Error()
	if strings.Contains(got, "unit") {
		t.Errorf("Error() = %q, want no unit reference without an id", got)
	}
	if !strings.Contains(got, "statement 0") {
		t.Errorf("Error() = %q, want statement index", got)
	}
}

func TestAdvisoryKeyStable(t *testing.T) {
	a := advisoryKey("public")
	if a != advisoryKey("public") {
		t.Error("advisory key is not deterministic")
	}
	if a == advisoryKey("content") {
		t.Error("different schemas share an advisory key")
	}
}
