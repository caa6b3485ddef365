// Package model defines entity model declarations for the content
// platform: ordered field specifications with type expressions, named
// custom validators, and the registry and record validator built on
// them.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/schemakit/schemakit/typeexpr"
)

// Definition declares an entity model: its fields in declaration order,
// custom validators, and metadata. Definitions are owned by the
// Registry; once fetched they must be treated as immutable, and
// re-registration replaces the whole entry.
type Definition struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      FieldList       `json:"fields" yaml:"fields"`
	Validators  []ValidatorSpec `json:"validators,omitempty" yaml:"validators,omitempty"`
	Metadata    Metadata        `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Version     int             `json:"version,omitempty" yaml:"version,omitempty"`
}

// Field is a single field specification. Type holds the source type
// expression; Expr is its parsed form, populated during registration.
type Field struct {
	Name           string `json:"name" yaml:"name"`
	Type           string `json:"type" yaml:"type"`
	Required       bool   `json:"required" yaml:"required"`
	Default        any    `json:"default,omitempty" yaml:"default,omitempty"`
	DefaultFactory string `json:"default_factory,omitempty" yaml:"default_factory,omitempty"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Indexed        bool   `json:"indexed,omitempty" yaml:"indexed,omitempty"`

	Expr *typeexpr.Expr `json:"-" yaml:"-"`
}

// Metadata carries model-level field classifications and the physical
// table override.
type Metadata struct {
	Required    []string `json:"required,omitempty" yaml:"required,omitempty"`
	Recommended []string `json:"recommended,omitempty" yaml:"recommended,omitempty"`
	TableName   string   `json:"table_name,omitempty" yaml:"table_name,omitempty"`
}

// Phase selects when a custom validator runs relative to type checking.
type Phase string

const (
	// PhasePre runs before the type check, on the raw input value.
	PhasePre Phase = "pre"
	// PhasePost runs after the type check; it sees the full record and
	// may normalize the stored value.
	PhasePost Phase = "post"
)

// ValidatorSpec names a registered validator function and the fields it
// targets. Predicates are resolved by name from a FuncMap supplied at
// startup; definitions never carry executable code.
type ValidatorSpec struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
	Phase  Phase    `json:"phase" yaml:"phase"`
}

// ValidatorFunc is a named validation predicate. It receives the target
// field name, the field's current value, and the full record (raw for
// pre phase, partially normalized for post). The returned value
// replaces the field's value; return the input value unchanged when no
// transform is intended. Implementations must be pure with respect to
// external state.
type ValidatorFunc func(field string, value any, record map[string]any) (any, error)

// FuncMap resolves validator names to functions. It is constructed at
// startup and shared by the registry and validator.
type FuncMap map[string]ValidatorFunc

// FactoryFunc produces a default value for an absent optional field.
type FactoryFunc func() any

// Factories resolves default-factory names. Builtins cover the common
// cases; callers may add their own before registering models.
func Factories() map[string]FactoryFunc {
	return map[string]FactoryFunc{
		"now":        func() any { return time.Now().UTC() },
		"uuid":       func() any { return uuid.NewString() },
		"empty_list": func() any { return []any{} },
		"empty_dict": func() any { return map[string]any{} },
	}
}

// FieldList is an ordered list of fields. Its YAML form is a mapping of
// field name to spec; mapping order is preserved, which fixes column
// order in generated DDL.
type FieldList []Field

// Get returns the field with the given name.
func (l FieldList) Get(name string) (Field, bool) {
	for _, f := range l {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (l FieldList) Names() []string {
	names := make([]string, len(l))
	for i, f := range l {
		names[i] = f.Name
	}
	return names
}

// UnmarshalYAML decodes either a mapping of name -> field spec
// (preserving document order) or a plain sequence of fields.
func (l *FieldList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		fields := make(FieldList, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var f Field
			if err := node.Content[i+1].Decode(&f); err != nil {
				return err
			}
			f.Name = node.Content[i].Value
			fields = append(fields, f)
		}
		*l = fields
		return nil
	case yaml.SequenceNode:
		var fields []Field
		if err := node.Decode(&fields); err != nil {
			return err
		}
		*l = fields
		return nil
	default:
		return fmt.Errorf("fields must be a mapping or a sequence, got yaml kind %d", node.Kind)
	}
}

// clone returns a copy of the definition with its own field and
// validator slices, so registry entries cannot be mutated through the
// caller's value.
func (d *Definition) clone() *Definition {
	out := *d
	out.Fields = append(FieldList(nil), d.Fields...)
	out.Validators = append([]ValidatorSpec(nil), d.Validators...)
	out.Metadata.Required = append([]string(nil), d.Metadata.Required...)
	out.Metadata.Recommended = append([]string(nil), d.Metadata.Recommended...)
	return &out
}

// TableName returns the physical table backing the model: the metadata
// override when present, otherwise the lowercased model name.
func (d *Definition) TableName() string {
	if d.Metadata.TableName != "" {
		return d.Metadata.TableName
	}
	return toSnake(d.Name)
}

func toSnake(s string) string {
	var out []rune
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
