// Package schemakit provides a programmatic API for schema-driven data
// modeling on PostgreSQL: models are declared as ordered field
// specifications with type expressions, records are validated against
// them, and the physical schema is kept in step through introspection,
// diffing, and additive migrations.
package schemakit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/schemakit/schemakit/internal/logger"
	"github.com/schemakit/schemakit/internal/schema"
	"github.com/schemakit/schemakit/internal/store"
	"github.com/schemakit/schemakit/model"
)

// Options configures a Client. The zero value targets the public schema
// with default tunables.
type Options struct {
	// Schema is the database schema to manage. Defaults to "public".
	Schema string

	// Funcs resolves the custom validator names model definitions may
	// reference. May be nil when no model uses custom validators.
	Funcs model.FuncMap

	// UnknownFields is the policy for record fields no model declares.
	// Defaults to recording them as warnings.
	UnknownFields model.UnknownFieldPolicy

	// Config carries the runtime tunables for store-touching
	// operations. Zero values fall back to defaults.
	Config schema.Config

	// Logger overrides the process-wide logger for this client.
	Logger *slog.Logger
}

// Client is the main entry point. It owns a registry of model
// definitions and the machinery that validates records against them and
// reconciles them with the physical schema. Safe for concurrent use.
type Client struct {
	db         *sql.DB
	schemaName string

	registry  *model.Registry
	validator *model.Validator
	store     *store.Store

	inspector  *schema.Inspector
	reconciler *schema.Reconciler
	ledger     *schema.Ledger

	log *slog.Logger
}

// NewClient creates a client over an open database handle. The handle
// is shared, not owned: closing it is the caller's responsibility. A
// nil db yields a validation-only client; store-touching operations
// will fail.
func NewClient(db *sql.DB, opts Options) *Client {
	if opts.Schema == "" {
		opts.Schema = "public"
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	cfg := opts.Config

	validator := model.NewValidator(opts.Funcs)
	if opts.UnknownFields != "" {
		validator.UnknownFields = opts.UnknownFields
	}

	inspector := schema.NewInspector(db, opts.Schema, cfg)

	return &Client{
		db:         db,
		schemaName: opts.Schema,
		registry:   model.NewRegistry(opts.Funcs, log),
		validator:  validator,
		store:      store.New(db, opts.Schema),
		inspector:  inspector,
		reconciler: schema.NewReconciler(inspector),
		ledger:     schema.NewLedger(db, opts.Schema, cfg),
		log:        log,
	}
}

// Bootstrap prepares the client's own storage: the target schema, the
// model definition table, and the migration ledger. It then hydrates
// the registry from persisted definitions. Idempotent; run once at
// startup.
func (c *Client) Bootstrap(ctx context.Context) error {
	if err := c.store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := c.ledger.EnsureTable(ctx); err != nil {
		return err
	}
	if err := c.store.Hydrate(ctx, c.registry); err != nil {
		return err
	}
	c.log.Debug("client bootstrapped", "schema", c.schemaName, "models", c.registry.Len())
	return nil
}

// Registry exposes the underlying model registry.
func (c *Client) Registry() *model.Registry { return c.registry }

// RegisterModel validates, compiles, and stores a model definition.
// With a database attached the definition is also persisted, so other
// processes pick it up on their next Bootstrap.
func (c *Client) RegisterModel(ctx context.Context, def *model.Definition, mode model.Mode) (*model.Definition, error) {
	entry, err := c.registry.Register(def, mode)
	if err != nil {
		return nil, err
	}
	if c.db != nil {
		if err := c.store.Save(ctx, entry); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// RegisterModelYAML decodes a YAML model document and registers it.
// Field mapping order in the document is preserved and fixes column
// order in generated DDL.
func (c *Client) RegisterModelYAML(ctx context.Context, doc []byte, mode model.Mode) (*model.Definition, error) {
	var def model.Definition
	if err := yaml.Unmarshal(doc, &def); err != nil {
		return nil, fmt.Errorf("failed to decode model document: %w", err)
	}
	return c.RegisterModel(ctx, &def, mode)
}

// GetModel returns a registered definition by name.
func (c *Client) GetModel(name string) (*model.Definition, error) {
	return c.registry.Get(name)
}

// Models returns registered model names in registration order.
func (c *Client) Models() []string { return c.registry.List() }

// Validate checks one record against a registered model. Findings are
// collected, never thrown; the result carries errors, warnings, and the
// normalized record.
func (c *Client) Validate(name string, record map[string]any) (*model.Result, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return c.validator.Validate(record, def, false), nil
}

// ValidatePartial checks a record without treating absent required
// fields as errors, for update payloads.
func (c *Client) ValidatePartial(name string, record map[string]any) (*model.Result, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return c.validator.Validate(record, def, true), nil
}

// ValidateBatch validates records independently; the returned slice is
// index-aligned with the input.
func (c *Client) ValidateBatch(name string, records []map[string]any) ([]*model.Result, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return c.validator.ValidateBatch(records, def), nil
}

// GenerateDDL renders the full bootstrap DDL for a model: its CREATE
// TABLE statement followed by index statements. Purely textual; nothing
// is executed.
func (c *Client) GenerateDDL(name string) ([]string, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}
	create, err := schema.GenerateCreateTable(def, c.schemaName)
	if err != nil {
		return nil, err
	}
	indexes, err := schema.GenerateIndexStatements(def, c.schemaName)
	if err != nil {
		return nil, err
	}
	return append([]string{create}, indexes...), nil
}

// Verify introspects one model's backing table and reports the
// discrepancy between declaration and physical shape.
func (c *Client) Verify(ctx context.Context, name string) (*schema.Discrepancy, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return c.reconciler.Verify(ctx, def)
}

// VerifyAll diffs every registered model against one snapshot pass over
// the store. The scan is read-only.
func (c *Client) VerifyAll(ctx context.Context) (map[string]*schema.Discrepancy, error) {
	return c.reconciler.VerifyAll(ctx, c.registry)
}

// MissingTables maps absent backing tables to the models that declare
// them.
func (c *Client) MissingTables(ctx context.Context) (map[string]string, error) {
	return c.reconciler.MissingTables(ctx, c.registry)
}

// Plan derives the corrective migration unit for one model without
// executing anything. The unit holds additive statements for what can
// be fixed and review actions for what cannot.
func (c *Client) Plan(ctx context.Context, name string) (*schema.Unit, error) {
	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}
	d, err := c.reconciler.Verify(ctx, def)
	if err != nil {
		return nil, err
	}
	return c.reconciler.GenerateFix(def, d)
}

// Apply executes a migration unit through the ledger: all statements in
// one transaction, recorded under the unit's content identifier.
// Re-applying a recorded unit is a no-op.
func (c *Client) Apply(ctx context.Context, unit *schema.Unit) (*schema.Outcome, error) {
	return c.ledger.Apply(ctx, unit)
}

// Reconcile plans and applies in one step: verify the model, derive its
// corrective unit, and apply it. The returned unit carries any review
// actions the apply could not cover.
func (c *Client) Reconcile(ctx context.Context, name string) (*schema.Unit, *schema.Outcome, error) {
	unit, err := c.Plan(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	outcome, err := c.ledger.Apply(ctx, unit)
	if err != nil {
		return unit, nil, err
	}
	return unit, outcome, nil
}

// History returns the applied migration units, oldest first.
func (c *Client) History(ctx context.Context) ([]schema.Unit, error) {
	return c.ledger.History(ctx)
}
