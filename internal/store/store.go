// Package store persists model definitions so every process sees the
// same declarations. Definitions are stored as JSON documents keyed by
// model name; re-registration upserts and the registry hydrates from
// here at startup.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/schemakit/schemakit/internal/logger"
	"github.com/schemakit/schemakit/model"
)

// Store reads and writes model definitions in one database schema.
type Store struct {
	db         *sql.DB
	schemaName string
	log        *slog.Logger
}

// New creates a store bound to a schema.
func New(db *sql.DB, schemaName string) *Store {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Store{db: db, schemaName: schemaName, log: logger.Get()}
}

const definitionsTable = "schemakit_model_definitions"

// EnsureSchema creates the schema and the definitions table if absent.
// Idempotent; safe to run at every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(s.schemaName)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name text PRIMARY KEY,
    version integer NOT NULL,
    definition jsonb NOT NULL,
    created_at timestamp with time zone NOT NULL DEFAULT now(),
    updated_at timestamp with time zone NOT NULL DEFAULT now()
)`, s.table()),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING gin (definition)",
			pq.QuoteIdentifier(definitionsTable+"_definition_idx"), s.table()),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure model definition storage: %w", err)
		}
	}
	return nil
}

// Save upserts a definition under its name.
func (s *Store) Save(ctx context.Context, def *model.Definition) error {
	doc, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode model %q: %w", def.Name, err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (name, version, definition)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET
    version = EXCLUDED.version,
    definition = EXCLUDED.definition,
    updated_at = now()`, s.table())

	if _, err := s.db.ExecContext(ctx, stmt, def.Name, def.Version, doc); err != nil {
		return fmt.Errorf("failed to save model %q: %w", def.Name, err)
	}
	s.log.Debug("saved model definition", "model", def.Name, "version", def.Version)
	return nil
}

// Load fetches one definition by name. Returns model.ErrNotFound when
// absent.
func (s *Store) Load(ctx context.Context, name string) (*model.Definition, error) {
	query := fmt.Sprintf("SELECT definition FROM %s WHERE name = $1", s.table())

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.RegistryError{Model: name, Err: model.ErrNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q: %w", name, err)
	}

	var def model.Definition
	if err := json.Unmarshal(doc, &def); err != nil {
		return nil, fmt.Errorf("failed to decode model %q: %w", name, err)
	}
	return &def, nil
}

// LoadAll fetches every stored definition, oldest first.
func (s *Store) LoadAll(ctx context.Context) ([]*model.Definition, error) {
	query := fmt.Sprintf("SELECT definition FROM %s ORDER BY created_at", s.table())
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load model definitions: %w", err)
	}
	defer rows.Close()

	var defs []*model.Definition
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan model definition: %w", err)
		}
		var def model.Definition
		if err := json.Unmarshal(doc, &def); err != nil {
			return nil, fmt.Errorf("failed to decode model definition: %w", err)
		}
		defs = append(defs, &def)
	}
	return defs, rows.Err()
}

// Hydrate loads every stored definition into the registry. Already
// registered names are replaced; the stored version wins.
func (s *Store) Hydrate(ctx context.Context, reg *model.Registry) error {
	start := time.Now()
	defs, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if _, err := reg.Register(def, model.ModeReplace); err != nil {
			return fmt.Errorf("failed to hydrate model %q: %w", def.Name, err)
		}
	}
	s.log.Info("hydrated model registry", "models", len(defs), "elapsed", time.Since(start))
	return nil
}

func (s *Store) table() string {
	return pq.QuoteIdentifier(s.schemaName) + "." + pq.QuoteIdentifier(definitionsTable)
}
