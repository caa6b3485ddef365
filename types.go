package schemakit

import (
	"github.com/schemakit/schemakit/internal/schema"
	"github.com/schemakit/schemakit/model"
	"github.com/schemakit/schemakit/typeexpr"
)

// Re-export important types for external consumption

// Definition declares an entity model: ordered fields, validators, and
// metadata.
type Definition = model.Definition

// Field is a single field specification within a model.
type Field = model.Field

// FieldList is an ordered list of fields.
type FieldList = model.FieldList

// Metadata carries model-level field classifications and the table
// override.
type Metadata = model.Metadata

// ValidatorSpec names a registered validator and the fields it targets.
type ValidatorSpec = model.ValidatorSpec

// ValidatorFunc is a named validation predicate.
type ValidatorFunc = model.ValidatorFunc

// FuncMap resolves validator names to functions.
type FuncMap = model.FuncMap

// Result is the outcome of validating one record.
type Result = model.Result

// FieldError addresses a single validation finding.
type FieldError = model.FieldError

// Mode controls how registration treats an existing model name.
type Mode = model.Mode

// Registration modes.
const (
	ModeStrict  = model.ModeStrict
	ModeReplace = model.ModeReplace
)

// Unknown-field policies.
const (
	UnknownFieldWarn   = model.UnknownFieldWarn
	UnknownFieldIgnore = model.UnknownFieldIgnore
	UnknownFieldReject = model.UnknownFieldReject
)

// Expr is a parsed type expression.
type Expr = typeexpr.Expr

// CheckError reports a value rejected by a type expression.
type CheckError = typeexpr.CheckError

// Config carries runtime tunables for store-touching operations.
type Config = schema.Config

// Snapshot is a point-in-time read of a table's column shape.
type Snapshot = schema.Snapshot

// Discrepancy is the structured difference between a model and the
// physical schema backing it.
type Discrepancy = schema.Discrepancy

// TypeMismatch records a column whose observed type disagrees with the
// model.
type TypeMismatch = schema.TypeMismatch

// Unit is an ordered set of corrective actions for one model.
type Unit = schema.Unit

// Action is one element of a migration unit.
type Action = schema.Action

// Outcome reports what one Apply call did.
type Outcome = schema.Outcome

// ReconciliationError reports a change reconciliation refuses to
// perform automatically.
type ReconciliationError = schema.ReconciliationError

// MigrationError reports a statement failure during unit application.
type MigrationError = schema.MigrationError
