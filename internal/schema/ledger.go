package schema

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/schemakit/schemakit/internal/logger"
)

// Ledger records which migration units have been applied and applies
// new ones. Application is atomic per unit: all statements run in one
// transaction together with the ledger insert, under a store-level
// advisory lock scoped to the schema, so concurrent processes never
// interleave corrective statements.
type Ledger struct {
	db         *sql.DB
	schemaName string
	cfg        Config
	log        *slog.Logger
}

// Outcome reports what one Apply call did.
type Outcome struct {
	UnitID         string     `json:"unit_id"`
	AlreadyApplied bool       `json:"already_applied"`
	Statements     int        `json:"statements"`
	AppliedAt      *time.Time `json:"applied_at,omitempty"`
}

// NewLedger creates a ledger for the given schema.
func NewLedger(db *sql.DB, schemaName string, cfg Config) *Ledger {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Ledger{db: db, schemaName: schemaName, cfg: cfg.normalized(), log: logger.Get()}
}

const ledgerTable = "schemakit_migrations"

// EnsureTable creates the ledger's own backing table. Idempotent.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id uuid PRIMARY KEY,
    unit_id text NOT NULL UNIQUE,
    model text NOT NULL,
    statements jsonb NOT NULL,
    applied_at timestamp with time zone NOT NULL DEFAULT now()
)`, qualify(l.schemaName, ledgerTable))
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create migration ledger table: %w", err)
	}
	return nil
}

// Applied reports whether a unit with the given identifier has been
// recorded.
func (l *Ledger) Applied(ctx context.Context, unitID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE unit_id = $1)", qualify(l.schemaName, ledgerTable))
	if err := l.db.QueryRowContext(ctx, query, unitID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to query migration ledger: %w", err)
	}
	return exists, nil
}

// History returns the applied units, oldest first.
func (l *Ledger) History(ctx context.Context) ([]Unit, error) {
	query := fmt.Sprintf("SELECT unit_id, model, statements, applied_at FROM %s ORDER BY applied_at", qualify(l.schemaName, ledgerTable))
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration ledger: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var (
			unit      Unit
			stmtsJSON []byte
			appliedAt time.Time
		)
		if err := rows.Scan(&unit.ID, &unit.Model, &stmtsJSON, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		var stmts []string
		if err := json.Unmarshal(stmtsJSON, &stmts); err != nil {
			return nil, fmt.Errorf("failed to decode ledger statements: %w", err)
		}
		for _, s := range stmts {
			unit.Actions = append(unit.Actions, Action{Kind: ActionAdditive, Statement: s})
		}
		unit.AppliedAt = &appliedAt
		units = append(units, unit)
	}
	return units, rows.Err()
}

// Apply executes the unit's statements inside one transaction and
// records it. Re-applying a recorded unit is a no-op. On any statement
// failure the whole unit rolls back, the ledger stays unchanged, and
// the caller receives the failing statement's index and message.
func (l *Ledger) Apply(ctx context.Context, unit *Unit) (*Outcome, error) {
	statements := unit.Statements()
	outcome := &Outcome{UnitID: unit.ID, Statements: len(statements)}

	if len(statements) == 0 {
		l.log.Debug("migration unit is empty, nothing to apply", "unit", shortID(unit.ID), "model", unit.Model)
		return outcome, nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.ApplyTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	// Transaction-scoped advisory lock keyed on the schema name: two
	// processes cannot apply overlapping units to the same schema. The
	// lock releases automatically at commit or rollback.
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryKey(l.schemaName)); err != nil {
		return nil, fmt.Errorf("failed to take schema advisory lock: %w", err)
	}

	// Identifier check happens under the lock so a unit applied by a
	// concurrent process since our last look is still detected.
	var exists bool
	existsQuery := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE unit_id = $1)", qualify(l.schemaName, ledgerTable))
	if err := tx.QueryRowContext(ctx, existsQuery, unit.ID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to query migration ledger: %w", err)
	}
	if exists {
		outcome.AlreadyApplied = true
		l.log.Info("migration unit already applied", "unit", shortID(unit.ID), "model", unit.Model)
		return outcome, nil
	}

	for idx, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, &MigrationError{UnitID: unit.ID, Index: idx, Statement: stmt, Err: err}
		}
	}

	stmtsJSON, err := json.Marshal(statements)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger statements: %w", err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (id, unit_id, model, statements) VALUES ($1, $2, $3, $4) RETURNING applied_at",
		qualify(l.schemaName, ledgerTable))
	var appliedAt time.Time
	if err := tx.QueryRowContext(ctx, insert, uuid.NewString(), unit.ID, unit.Model, stmtsJSON).Scan(&appliedAt); err != nil {
		return nil, fmt.Errorf("failed to record migration unit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit migration unit: %w", err)
	}

	outcome.AppliedAt = &appliedAt
	l.log.Info("applied migration unit",
		"unit", shortID(unit.ID), "model", unit.Model, "statements", len(statements))
	return outcome, nil
}

// advisoryKey hashes the schema name into the bigint key space
// pg_advisory_xact_lock expects.
func advisoryKey(schemaName string) int64 {
	h := fnv.New64a()
	h.Write([]byte("schemakit:"))
	h.Write([]byte(schemaName))
	return int64(h.Sum64())
}
