package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schemakit/schemakit/typeexpr"
)

// UnknownFieldPolicy controls how input fields absent from the model
// are treated. The default records them as warnings.
type UnknownFieldPolicy string

const (
	UnknownFieldWarn   UnknownFieldPolicy = "warn"
	UnknownFieldIgnore UnknownFieldPolicy = "ignore"
	UnknownFieldReject UnknownFieldPolicy = "reject"
)

// FieldError addresses a single validation finding.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of validating one record. It is created fresh
// per call and never cached. Errors and Warnings preserve the order in
// which findings were made (field declaration order).
type Result struct {
	Errors     []FieldError   `json:"errors,omitempty"`
	Warnings   []FieldError   `json:"warnings,omitempty"`
	Normalized map[string]any `json:"normalized,omitempty"`
}

// IsValid reports whether the record passed with no errors. Warnings do
// not affect validity.
func (r *Result) IsValid() bool { return len(r.Errors) == 0 }

func (r *Result) addError(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

func (r *Result) addWarning(field, message string) {
	r.Warnings = append(r.Warnings, FieldError{Field: field, Message: message})
}

// Validator checks records against registered model definitions. It is
// stateless apart from configuration and safe for concurrent use.
type Validator struct {
	funcs     FuncMap
	factories map[string]FactoryFunc

	// UnknownFields is the policy for input fields the model does not
	// declare. Defaults to UnknownFieldWarn.
	UnknownFields UnknownFieldPolicy
}

// NewValidator creates a validator resolving custom validator names
// from funcs. Pass the same FuncMap the registry was built with.
func NewValidator(funcs FuncMap) *Validator {
	return &Validator{
		funcs:         funcs,
		factories:     Factories(),
		UnknownFields: UnknownFieldWarn,
	}
}

// Validate checks data against the definition. Findings are always
// collected, never thrown: every declared field is checked even after
// earlier failures, and the result carries the complete list. With
// partial set, absent fields are skipped entirely: no missing-field
// errors, no recommended-field warnings, no defaults.
func (v *Validator) Validate(data map[string]any, def *Definition, partial bool) *Result {
	result := &Result{Normalized: make(map[string]any, len(data))}

	required := make(map[string]bool, len(def.Metadata.Required))
	for _, name := range def.Metadata.Required {
		required[name] = true
	}
	recommended := make(map[string]bool, len(def.Metadata.Recommended))
	for _, name := range def.Metadata.Recommended {
		recommended[name] = true
	}

	for _, field := range def.Fields {
		value, present := data[field.Name]
		if !present {
			// Partial payloads update only the fields they carry: no
			// missing-field findings and no default injection.
			if partial {
				continue
			}
			switch {
			case field.Required || required[field.Name]:
				result.addError(field.Name, "missing required field")
			case field.Default != nil:
				result.Normalized[field.Name] = field.Default
			case field.DefaultFactory != "":
				if factory, ok := v.factories[field.DefaultFactory]; ok {
					result.Normalized[field.Name] = factory()
				}
			case recommended[field.Name]:
				result.addWarning(field.Name, "recommended field is absent")
			}
			continue
		}

		// Pre-phase validators may reject or transform the raw value.
		value = v.runPhase(PhasePre, field.Name, value, data, def, result)

		if err := v.checkType(field, value); err != nil {
			result.addError(fieldPath(field.Name, err), checkMessage(err))
		}

		result.Normalized[field.Name] = value
	}

	// Post-phase validators see the full record for cross-field rules
	// and may normalize stored values.
	for _, field := range def.Fields {
		value, present := result.Normalized[field.Name]
		if !present {
			continue
		}
		result.Normalized[field.Name] = v.runPhase(PhasePost, field.Name, value, result.Normalized, def, result)
	}

	v.applyUnknownFieldPolicy(data, def, result)

	return result
}

// ValidateBatch validates each record independently. The returned slice
// is index-aligned with records; no state is shared between entries.
func (v *Validator) ValidateBatch(records []map[string]any, def *Definition) []*Result {
	results := make([]*Result, len(records))
	for i, record := range records {
		results[i] = v.Validate(record, def, false)
	}
	return results
}

// checkType parses the field expression lazily when the definition did
// not come from a registry (Expr already populated otherwise).
func (v *Validator) checkType(field Field, value any) error {
	expr := field.Expr
	if expr == nil {
		var err error
		expr, err = typeexpr.Parse(field.Type)
		if err != nil {
			return err
		}
	}
	return expr.Check(value)
}

func (v *Validator) runPhase(phase Phase, field string, value any, record map[string]any, def *Definition, result *Result) any {
	for _, spec := range def.Validators {
		if spec.Phase != phase || !targets(spec, field) {
			continue
		}
		fn, ok := v.funcs[spec.Name]
		if !ok {
			// Registration resolves names; an unresolved name here means
			// the definition bypassed the registry.
			result.addError(field, fmt.Sprintf("validator %q is not registered", spec.Name))
			continue
		}
		transformed, err := fn(field, value, record)
		if err != nil {
			result.addError(field, fmt.Sprintf("validator %q: %v", spec.Name, err))
			continue
		}
		value = transformed
	}
	return value
}

func (v *Validator) applyUnknownFieldPolicy(data map[string]any, def *Definition, result *Result) {
	policy := v.UnknownFields
	if policy == "" {
		policy = UnknownFieldWarn
	}

	// Iterate in declaration-independent but stable order.
	for _, name := range sortedKeys(data) {
		if _, declared := def.Fields.Get(name); declared {
			continue
		}
		switch policy {
		case UnknownFieldReject:
			result.addError(name, "field is not declared by the model")
		case UnknownFieldIgnore:
			result.Normalized[name] = data[name]
		default:
			result.addWarning(name, "field is not declared by the model")
			result.Normalized[name] = data[name]
		}
	}
}

func targets(spec ValidatorSpec, field string) bool {
	for _, f := range spec.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// fieldPath joins the field name with a nested check-error path, e.g.
// "items" + "[1].k" -> "items[1].k".
func fieldPath(field string, err error) string {
	checkErr, ok := err.(*typeexpr.CheckError)
	if !ok || checkErr.Path == "" {
		return field
	}
	if strings.HasPrefix(checkErr.Path, "[") {
		return field + checkErr.Path
	}
	return field + "." + checkErr.Path
}

func checkMessage(err error) string {
	if checkErr, ok := err.(*typeexpr.CheckError); ok {
		msg := checkErr.Msg
		if checkErr.More > 0 {
			msg = fmt.Sprintf("%s (and %d more)", msg, checkErr.More)
		}
		return msg
	}
	return err.Error()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
