// Package typeexpr implements the closed type-expression grammar used by
// model field declarations: scalar base types plus the generic forms
// List[T], Dict[K,V], Union[T1,...,Tn] and Optional[T].
//
// Expressions are parsed once (normally at model registration) into an
// Expr tree, and values are checked against the tree. Optional[T] is
// sugar for Union[T, None].
package typeexpr

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a type expression node
type Kind string

const (
	KindString   Kind = "str"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindDatetime Kind = "datetime"
	KindDict     Kind = "dict" // untyped mapping
	KindAny      Kind = "any"
	KindNone     Kind = "None"
	KindList     Kind = "List"
	KindMap      Kind = "Dict"
	KindUnion    Kind = "Union"
)

// Format qualifiers accepted on the str base type, e.g. str(format=uuid)
const (
	FormatUUID     = "uuid"
	FormatDateTime = "date-time"
)

// Expr is a parsed type expression. Exactly the fields relevant to its
// Kind are populated:
//
//	KindList  -> Elem
//	KindMap   -> Key, Value
//	KindUnion -> Args (declaration order)
//	KindString -> Format (optional)
type Expr struct {
	Kind   Kind
	Format string
	Elem   *Expr
	Key    *Expr
	Value  *Expr
	Args   []*Expr

	src string
}

// String returns the source text the expression was parsed from.
func (e *Expr) String() string {
	if e.src != "" {
		return e.src
	}
	return e.render()
}

func (e *Expr) render() string {
	switch e.Kind {
	case KindList:
		return fmt.Sprintf("List[%s]", e.Elem.render())
	case KindMap:
		return fmt.Sprintf("Dict[%s, %s]", e.Key.render(), e.Value.render())
	case KindUnion:
		parts := make([]string, len(e.Args))
		for i, arg := range e.Args {
			parts[i] = arg.render()
		}
		return fmt.Sprintf("Union[%s]", strings.Join(parts, ", "))
	case KindString:
		if e.Format != "" {
			return fmt.Sprintf("str(format=%s)", e.Format)
		}
		return string(e.Kind)
	default:
		return string(e.Kind)
	}
}

// IsOptional reports whether the expression admits null, i.e. it is
// None, any, or a union with a None member.
func (e *Expr) IsOptional() bool {
	switch e.Kind {
	case KindNone, KindAny:
		return true
	case KindUnion:
		for _, arg := range e.Args {
			if arg.IsOptional() {
				return true
			}
		}
	}
	return false
}

// NonNull returns the expression with any top-level None union members
// removed. For Optional[T] this yields T. Returns nil if the expression
// is exactly None.
func (e *Expr) NonNull() *Expr {
	if e.Kind == KindNone {
		return nil
	}
	if e.Kind != KindUnion {
		return e
	}
	var rest []*Expr
	for _, arg := range e.Args {
		if arg.Kind != KindNone {
			rest = append(rest, arg)
		}
	}
	switch len(rest) {
	case 0:
		return nil
	case 1:
		return rest[0]
	default:
		return &Expr{Kind: KindUnion, Args: rest}
	}
}

// ParseError reports a malformed or unrecognized type expression. It is
// surfaced at model registration time, never during record validation.
type ParseError struct {
	Expr string // full source expression
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid type expression %q: %s", e.Expr, e.Msg)
}
