package schemakit

import (
	"context"

	"github.com/schemakit/schemakit/internal/schema"
	"github.com/schemakit/schemakit/model"
	"github.com/schemakit/schemakit/typeexpr"
)

// ParseType is a convenience function to parse a type expression.
func ParseType(src string) (*typeexpr.Expr, error) {
	return typeexpr.Parse(src)
}

// CheckValue is a convenience function to check one value against a
// type expression source, without a model or client.
func CheckValue(value any, typeSrc string) (bool, error) {
	return typeexpr.Validate(value, typeSrc)
}

// ValidateRecord is a convenience function to validate a record against
// a standalone definition, without a registry. Type expressions are
// parsed on the fly; prefer a registered model for repeated use.
func ValidateRecord(record map[string]any, def *model.Definition) *model.Result {
	return model.NewValidator(nil).Validate(record, def, false)
}

// EnsureModel registers (or replaces) a model and reconciles its
// backing table in one call: the table is created when missing and
// absent columns are added. Review findings are returned on the unit.
func EnsureModel(ctx context.Context, client *Client, def *model.Definition) (*schema.Unit, error) {
	if _, err := client.RegisterModel(ctx, def, model.ModeReplace); err != nil {
		return nil, err
	}
	unit, _, err := client.Reconcile(ctx, def.Name)
	return unit, err
}

// GenerateBootstrapDDL renders the bootstrap DDL for a standalone
// definition against a schema, without a client or database.
func GenerateBootstrapDDL(def *model.Definition, schemaName string) ([]string, error) {
	create, err := schema.GenerateCreateTable(def, schemaName)
	if err != nil {
		return nil, err
	}
	indexes, err := schema.GenerateIndexStatements(def, schemaName)
	if err != nil {
		return nil, err
	}
	return append([]string{create}, indexes...), nil
}
