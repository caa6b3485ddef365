package model

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/schemakit/schemakit/typeexpr"
)

// Mode controls how Register treats an existing model name.
type Mode string

const (
	// ModeStrict rejects registration when the name is already taken.
	ModeStrict Mode = "strict"
	// ModeReplace overwrites the existing entry and bumps its version.
	ModeReplace Mode = "replace"
)

// Registry is the single source of truth for model definitions. It is
// an explicit object passed to consumers, never package-level state.
// Writers serialize with each other; readers see consistent snapshots.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Definition
	order  []string
	funcs  FuncMap
	logger *slog.Logger
}

// NewRegistry creates a registry. funcs resolves the validator names
// that definitions may reference; it may be nil when no model uses
// custom validators.
func NewRegistry(funcs FuncMap, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		models: make(map[string]*Definition),
		funcs:  funcs,
		logger: logger,
	}
}

// Funcs returns the validator function map the registry was built with.
func (r *Registry) Funcs() FuncMap { return r.funcs }

// Register validates and stores a model definition. Every field type
// expression is parsed here; an unparsable expression or an unresolved
// validator name fails registration with a *SchemaError, so validation
// calls never see a malformed model. The stored entry is a copy with
// parsed expressions attached.
func (r *Registry) Register(def *Definition, mode Mode) (*Definition, error) {
	if def == nil || def.Name == "" {
		return nil, &RegistryError{Model: "", Err: fmt.Errorf("definition has no name")}
	}

	entry := def.clone()
	if err := r.compile(entry); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.models[def.Name]
	if exists && mode != ModeReplace {
		return nil, &RegistryError{Model: def.Name, Err: ErrDuplicate}
	}

	if exists {
		entry.Version = prev.Version + 1
	} else {
		if entry.Version == 0 {
			entry.Version = 1
		}
		r.order = append(r.order, def.Name)
	}
	r.models[def.Name] = entry

	r.logger.Info("registered model", "model", def.Name, "version", entry.Version, "fields", len(entry.Fields))
	return entry, nil
}

// compile parses every field type expression and resolves validator
// references. It mutates only the registry's private copy.
func (r *Registry) compile(def *Definition) error {
	seen := make(map[string]bool, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Name == "" {
			return &SchemaError{Model: def.Name, Err: fmt.Errorf("field %d has no name", i)}
		}
		if seen[f.Name] {
			return &SchemaError{Model: def.Name, Field: f.Name, Err: fmt.Errorf("duplicate field name")}
		}
		seen[f.Name] = true

		if f.Type == "" {
			f.Type = "any"
		}
		expr, err := typeexpr.Parse(f.Type)
		if err != nil {
			return &SchemaError{Model: def.Name, Field: f.Name, Err: err}
		}
		f.Expr = expr

		if f.DefaultFactory != "" {
			if _, ok := Factories()[f.DefaultFactory]; !ok {
				return &SchemaError{Model: def.Name, Field: f.Name, Err: fmt.Errorf("unknown default factory %q", f.DefaultFactory)}
			}
		}
	}

	for _, spec := range def.Validators {
		if spec.Phase != PhasePre && spec.Phase != PhasePost {
			return &SchemaError{Model: def.Name, Err: fmt.Errorf("validator %q has invalid phase %q", spec.Name, spec.Phase)}
		}
		if _, ok := r.funcs[spec.Name]; !ok {
			return &SchemaError{Model: def.Name, Err: fmt.Errorf("validator %q is not registered", spec.Name)}
		}
		for _, field := range spec.Fields {
			if !seen[field] {
				return &SchemaError{Model: def.Name, Field: field, Err: fmt.Errorf("validator %q targets unknown field", spec.Name)}
			}
		}
	}

	for _, field := range def.Metadata.Required {
		if !seen[field] {
			return &SchemaError{Model: def.Name, Field: field, Err: fmt.Errorf("metadata lists unknown required field")}
		}
	}
	for _, field := range def.Metadata.Recommended {
		if !seen[field] {
			return &SchemaError{Model: def.Name, Field: field, Err: fmt.Errorf("metadata lists unknown recommended field")}
		}
	}

	return nil
}

// Get returns the registered definition. The returned value is shared;
// callers must not mutate it.
func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.models[name]
	if !ok {
		return nil, &RegistryError{Model: name, Err: ErrNotFound}
	}
	return def, nil
}

// List returns all registered model names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
