package model

import (
	"errors"
	"fmt"
)

// Registry failure sentinels, matched with errors.Is.
var (
	// ErrNotFound reports a lookup for an unregistered model.
	ErrNotFound = errors.New("model not found")
	// ErrDuplicate reports a strict-mode registration of an existing name.
	ErrDuplicate = errors.New("model already registered")
)

// RegistryError wraps a registry failure with the model name involved.
type RegistryError struct {
	Model string
	Err   error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry: model %q: %v", e.Model, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// SchemaError reports a structurally invalid model definition: a field
// whose type expression does not parse, a validator referencing an
// unknown function, or similar. It fails registration immediately.
type SchemaError struct {
	Model string
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("model %q field %q: %v", e.Model, e.Field, e.Err)
	}
	return fmt.Sprintf("model %q: %v", e.Model, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
