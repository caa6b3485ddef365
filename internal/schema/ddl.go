package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/schemakit/schemakit/model"
	"github.com/schemakit/schemakit/typeexpr"
)

// GenerateCreateTable renders a CREATE TABLE IF NOT EXISTS statement
// for the model. Column order follows field declaration order; a field
// literally named "id" becomes the primary key; required fields without
// defaults get NOT NULL. Fails with the mapping error when any field
// has no storage type.
func GenerateCreateTable(def *model.Definition, schemaName string) (string, error) {
	var cols []string
	for _, field := range def.Fields {
		col, err := columnDefinition(def, field)
		if err != nil {
			return "", err
		}
		cols = append(cols, "    "+col)
	}
	if len(cols) == 0 {
		return "", &ReconciliationError{Model: def.Name, Reason: "model declares no fields"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", qualify(schemaName, def.TableName()))
	b.WriteString(strings.Join(cols, ",\n"))
	b.WriteString("\n)")
	return b.String(), nil
}

// GenerateAddColumn renders an additive ALTER TABLE statement for one
// missing column.
func GenerateAddColumn(def *model.Definition, field model.Field, schemaName string) (string, error) {
	col, err := columnDefinition(def, field)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s",
		qualify(schemaName, def.TableName()), col), nil
}

// GenerateIndexStatements renders one index per field flagged indexed.
// Container-typed fields get a GIN index so membership queries are
// served; everything else gets the default btree.
func GenerateIndexStatements(def *model.Definition, schemaName string) ([]string, error) {
	var stmts []string
	table := def.TableName()
	for _, field := range def.Fields {
		if !field.Indexed || field.Name == "id" {
			continue
		}
		storage, err := MapDeclaredType(fieldExpr(field))
		if err != nil {
			return nil, wrapMappingError(def, field, err)
		}
		name := fmt.Sprintf("%s_%s_idx", table, field.Name)
		using := ""
		if storage == StorageJSONB {
			using = " USING gin"
		}
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s%s (%s)",
			pq.QuoteIdentifier(name), qualify(schemaName, table), using, pq.QuoteIdentifier(field.Name)))
	}
	return stmts, nil
}

func columnDefinition(def *model.Definition, field model.Field) (string, error) {
	storage, err := MapDeclaredType(fieldExpr(field))
	if err != nil {
		return "", wrapMappingError(def, field, err)
	}

	parts := []string{pq.QuoteIdentifier(field.Name), columnType(storage)}

	if field.Name == "id" {
		parts = append(parts, "PRIMARY KEY")
	}

	hasDefault := field.Default != nil || field.DefaultFactory != ""
	if hasDefault {
		lit, err := defaultLiteral(field, storage)
		if err != nil {
			return "", &ReconciliationError{Model: def.Name, Field: field.Name, Reason: err.Error()}
		}
		parts = append(parts, "DEFAULT "+lit)
	}

	if field.Required && !hasDefault && field.Name != "id" {
		parts = append(parts, "NOT NULL")
	}

	return strings.Join(parts, " "), nil
}

// defaultLiteral renders a field default as a SQL expression. Literal
// values are quoted; factories map to server-side expressions.
func defaultLiteral(field model.Field, storage StorageType) (string, error) {
	if field.DefaultFactory != "" {
		switch field.DefaultFactory {
		case "now":
			return "now()", nil
		case "uuid":
			return "gen_random_uuid()", nil
		case "empty_list":
			return "'[]'::jsonb", nil
		case "empty_dict":
			return "'{}'::jsonb", nil
		default:
			return "", fmt.Errorf("default factory %q has no SQL rendering", field.DefaultFactory)
		}
	}

	switch v := field.Default.(type) {
	case string:
		lit := pq.QuoteLiteral(v)
		if storage == StorageJSONB {
			return lit + "::jsonb", nil
		}
		return lit, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("default value %v (%T) has no SQL rendering", v, v)
	}
}

func fieldExpr(field model.Field) *typeexpr.Expr {
	if field.Expr != nil {
		return field.Expr
	}
	expr, err := typeexpr.Parse(field.Type)
	if err != nil {
		return nil
	}
	return expr
}

func wrapMappingError(def *model.Definition, field model.Field, err error) error {
	if recErr, ok := err.(*ReconciliationError); ok {
		return &ReconciliationError{Model: def.Name, Field: field.Name, Reason: recErr.Reason}
	}
	return err
}

func qualify(schemaName, table string) string {
	if schemaName == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schemaName) + "." + pq.QuoteIdentifier(table)
}
