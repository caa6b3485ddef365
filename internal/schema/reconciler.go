package schema

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemakit/schemakit/internal/logger"
	"github.com/schemakit/schemakit/model"
)

// Reconciler diffs declared models against introspected snapshots and
// derives additive corrective units. It never emits destructive
// statements: type mismatches and extra columns are reported for
// review only.
type Reconciler struct {
	inspector *Inspector
	log       *slog.Logger
}

// NewReconciler creates a reconciler reading through the inspector.
func NewReconciler(inspector *Inspector) *Reconciler {
	return &Reconciler{inspector: inspector, log: logger.Get()}
}

// Diff computes the discrepancy between a model and a snapshot. A nil
// or non-existent snapshot marks the table missing. Fails with a
// *ReconciliationError when a field's storage type cannot be derived.
func (r *Reconciler) Diff(def *model.Definition, snap *Snapshot) (*Discrepancy, error) {
	d := &Discrepancy{Model: def.Name, Table: def.TableName()}

	declared := make(map[string]StorageType, len(def.Fields))
	for _, field := range def.Fields {
		storage, err := MapDeclaredType(fieldExpr(field))
		if err != nil {
			return nil, wrapMappingError(def, field, err)
		}
		declared[field.Name] = storage
	}

	if snap == nil || !snap.Exists {
		d.TableMissing = true
		return d, nil
	}

	for _, field := range def.Fields {
		col, ok := snap.Columns[field.Name]
		if !ok {
			d.MissingColumns = append(d.MissingColumns, field.Name)
			continue
		}
		observed := observedStorage(col.DataType)
		if observed != declared[field.Name] {
			d.TypeMismatches = append(d.TypeMismatches, TypeMismatch{
				Column:   field.Name,
				Declared: string(declared[field.Name]),
				Observed: string(observed),
			})
		}
	}

	for name := range snap.Columns {
		if _, ok := def.Fields.Get(name); !ok {
			d.ExtraColumns = append(d.ExtraColumns, name)
		}
	}
	sort.Strings(d.ExtraColumns)

	return d, nil
}

// GenerateFix derives a migration unit from a discrepancy. Only
// additive statements are generated: CREATE TABLE IF NOT EXISTS for a
// missing table (with its indexes), ALTER TABLE ADD COLUMN for missing
// columns. Type mismatches and extra columns become review actions,
// never statements. Every generated statement is parsed before it is
// accepted into the unit.
func (r *Reconciler) GenerateFix(def *model.Definition, d *Discrepancy) (*Unit, error) {
	unit := &Unit{Model: def.Name, Table: d.Table}
	schemaName := r.inspector.SchemaName()

	if d.TableMissing {
		stmt, err := GenerateCreateTable(def, schemaName)
		if err != nil {
			return nil, err
		}
		unit.Actions = append(unit.Actions, Action{Kind: ActionAdditive, Statement: stmt})

		indexes, err := GenerateIndexStatements(def, schemaName)
		if err != nil {
			return nil, err
		}
		for _, idx := range indexes {
			unit.Actions = append(unit.Actions, Action{Kind: ActionAdditive, Statement: idx})
		}
	} else {
		for _, name := range d.MissingColumns {
			field, ok := def.Fields.Get(name)
			if !ok {
				return nil, &ReconciliationError{Model: def.Name, Field: name, Reason: "discrepancy names a field the model does not declare"}
			}
			stmt, err := GenerateAddColumn(def, field, schemaName)
			if err != nil {
				return nil, err
			}
			unit.Actions = append(unit.Actions, Action{Kind: ActionAdditive, Statement: stmt})
		}
	}

	for _, mismatch := range d.TypeMismatches {
		unit.Actions = append(unit.Actions, Action{
			Kind:   ActionRequiresReview,
			Column: mismatch.Column,
			Reason: fmt.Sprintf("column type is %s but model maps to %s; altering column types is not automated", mismatch.Observed, mismatch.Declared),
		})
	}
	for _, extra := range d.ExtraColumns {
		unit.Actions = append(unit.Actions, Action{
			Kind:   ActionRequiresReview,
			Column: extra,
			Reason: "column exists physically but is not declared by the model; dropping columns is not automated",
		})
	}

	// The unit has no identifier yet at this point, so a parse failure
	// is reported by statement index alone.
	statements := unit.Statements()
	for idx, stmt := range statements {
		if _, err := pg_query.Parse(stmt); err != nil {
			return nil, &MigrationError{Index: idx, Statement: stmt,
				Err: fmt.Errorf("generated statement does not parse: %w", err)}
		}
	}

	id, err := unitID(statements)
	if err != nil {
		return nil, err
	}
	unit.ID = id

	return unit, nil
}

// Verify introspects the model's table and diffs against it.
func (r *Reconciler) Verify(ctx context.Context, def *model.Definition) (*Discrepancy, error) {
	snap, err := r.inspector.Introspect(ctx, def.TableName())
	if err != nil {
		return nil, err
	}
	return r.Diff(def, snap)
}

// VerifyAll diffs every registered model against one shared snapshot
// pass over the store. The scan is read-only; it may be cancelled via
// ctx between checkpoints without side effects.
func (r *Reconciler) VerifyAll(ctx context.Context, reg *model.Registry) (map[string]*Discrepancy, error) {
	names := reg.List()

	tables := make([]string, 0, len(names))
	defs := make(map[string]*model.Definition, len(names))
	for _, name := range names {
		def, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		defs[name] = def
		tables = append(tables, def.TableName())
	}

	snapshots, err := r.inspector.IntrospectAll(ctx, tables)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*Discrepancy, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		def := defs[name]
		d, err := r.Diff(def, snapshots[def.TableName()])
		if err != nil {
			return nil, err
		}
		results[name] = d
		if !d.IsClean() {
			r.log.Warn("model disagrees with physical schema",
				"model", name, "table", def.TableName(),
				"table_missing", d.TableMissing,
				"missing_columns", len(d.MissingColumns),
				"type_mismatches", len(d.TypeMismatches),
				"extra_columns", len(d.ExtraColumns))
		}
	}
	return results, nil
}

// MissingTables reports models whose backing table does not exist.
func (r *Reconciler) MissingTables(ctx context.Context, reg *model.Registry) (map[string]string, error) {
	discrepancies, err := r.VerifyAll(ctx, reg)
	if err != nil {
		return nil, err
	}
	missing := make(map[string]string)
	for name, d := range discrepancies {
		if d.TableMissing {
			missing[d.Table] = name
		}
	}
	return missing, nil
}

// unitID derives the unit's stable content identifier: a SHA-256 over
// the pg_query fingerprints of its statements, so formatting-only
// differences do not change identity.
func unitID(statements []string) (string, error) {
	h := sha256.New()
	for _, stmt := range statements {
		fp, err := pg_query.Fingerprint(stmt)
		if err != nil {
			return "", fmt.Errorf("failed to fingerprint statement: %w", err)
		}
		fmt.Fprintln(h, fp)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
