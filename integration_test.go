package schemakit_test

import (
	"context"
	"testing"

	"github.com/schemakit/schemakit"
	"github.com/schemakit/schemakit/testutil"
)

func TestClientEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container := testutil.SetupPostgresContainer(ctx, t)
	defer container.Terminate(ctx, t)

	client := schemakit.NewClient(container.Conn, schemakit.Options{})
	if err := client.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if _, err := client.RegisterModel(ctx, articleDefinition(), schemakit.ModeStrict); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}

	// The table does not exist yet.
	missing, err := client.MissingTables(ctx)
	if err != nil {
		t.Fatalf("MissingTables: %v", err)
	}
	if missing["article"] != "Article" {
		t.Fatalf("expected article to be reported missing, got %v", missing)
	}

	// Reconcile creates it.
	unit, outcome, err := client.Reconcile(ctx, "Article")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome.AlreadyApplied {
		t.Fatal("first apply reported as already applied")
	}
	if len(unit.Statements()) == 0 {
		t.Fatal("reconcile generated no statements for a missing table")
	}

	// Second reconcile is a clean no-op.
	unit2, outcome2, err := client.Reconcile(ctx, "Article")
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if !unit2.Empty() {
		t.Fatalf("second reconcile generated statements: %v", unit2.Statements())
	}
	if outcome2.AppliedAt != nil {
		t.Fatal("empty unit recorded an application time")
	}

	d, err := client.Verify(ctx, "Article")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !d.IsClean() {
		t.Fatalf("schema not clean after reconcile: %+v", d)
	}
}

func TestClientMigrationIdempotence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container := testutil.SetupPostgresContainer(ctx, t)
	defer container.Terminate(ctx, t)

	client := schemakit.NewClient(container.Conn, schemakit.Options{})
	if err := client.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, err := client.RegisterModel(ctx, articleDefinition(), schemakit.ModeStrict); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}

	unit, err := client.Plan(ctx, "Article")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	first, err := client.Apply(ctx, unit)
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if first.AlreadyApplied {
		t.Fatal("first apply reported as already applied")
	}

	// Re-applying the same unit must be a recorded no-op.
	second, err := client.Apply(ctx, unit)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if !second.AlreadyApplied {
		t.Fatal("second apply was not detected as already applied")
	}

	history, err := client.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(history))
	}
	if history[0].ID != unit.ID {
		t.Errorf("ledger records unit %s, want %s", history[0].ID, unit.ID)
	}
}

func TestClientHydratesPersistedModels(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container := testutil.SetupPostgresContainer(ctx, t)
	defer container.Terminate(ctx, t)

	first := schemakit.NewClient(container.Conn, schemakit.Options{})
	if err := first.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, err := first.RegisterModel(ctx, articleDefinition(), schemakit.ModeStrict); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}

	// A fresh client over the same database sees the model after
	// bootstrapping.
	second := schemakit.NewClient(container.Conn, schemakit.Options{})
	if err := second.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	def, err := second.GetModel("Article")
	if err != nil {
		t.Fatalf("GetModel after hydrate: %v", err)
	}
	if len(def.Fields) != 4 {
		t.Errorf("hydrated model has %d fields, want 4", len(def.Fields))
	}
}
