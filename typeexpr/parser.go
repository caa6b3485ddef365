package typeexpr

import (
	"fmt"
	"strings"
)

// Parse parses a type expression into an Expr tree. Generic arguments
// are split on top-level commas only, so nested generics such as
// Dict[str, List[int]] resolve correctly.
func Parse(src string) (*Expr, error) {
	expr, err := parse(strings.TrimSpace(src), src)
	if err != nil {
		return nil, err
	}
	expr.src = strings.TrimSpace(src)
	return expr, nil
}

// MustParse is like Parse but panics on error. Intended for
// compile-time-constant expressions in tests and built-in models.
func MustParse(src string) *Expr {
	expr, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return expr
}

func parse(s, full string) (*Expr, error) {
	if s == "" {
		return nil, &ParseError{Expr: full, Msg: "empty expression"}
	}

	// Scalar base types
	switch s {
	case "str", "string":
		return &Expr{Kind: KindString}, nil
	case "int":
		return &Expr{Kind: KindInt}, nil
	case "float":
		return &Expr{Kind: KindFloat}, nil
	case "bool":
		return &Expr{Kind: KindBool}, nil
	case "datetime":
		return &Expr{Kind: KindDatetime}, nil
	case "dict":
		return &Expr{Kind: KindDict}, nil
	case "any", "Any":
		return &Expr{Kind: KindAny}, nil
	case "None", "none":
		return &Expr{Kind: KindNone}, nil
	}

	// str with a format qualifier: str(format=uuid)
	if inner, ok := generic(s, "str", "(", ")"); ok {
		format, found := strings.CutPrefix(strings.TrimSpace(inner), "format=")
		if !found {
			return nil, &ParseError{Expr: full, Msg: fmt.Sprintf("unsupported str qualifier %q", inner)}
		}
		format = strings.TrimSpace(format)
		switch format {
		case FormatUUID, FormatDateTime:
			return &Expr{Kind: KindString, Format: format}, nil
		default:
			return nil, &ParseError{Expr: full, Msg: fmt.Sprintf("unsupported str format %q", format)}
		}
	}

	if inner, ok := generic(s, "List", "[", "]"); ok {
		elem, err := parse(strings.TrimSpace(inner), full)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: KindList, Elem: elem}, nil
	}

	if inner, ok := generic(s, "Dict", "[", "]"); ok {
		args, err := splitTopLevel(inner, full)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, &ParseError{Expr: full, Msg: fmt.Sprintf("Dict requires exactly 2 type arguments, got %d", len(args))}
		}
		key, err := parse(args[0], full)
		if err != nil {
			return nil, err
		}
		value, err := parse(args[1], full)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: KindMap, Key: key, Value: value}, nil
	}

	if inner, ok := generic(s, "Union", "[", "]"); ok {
		args, err := splitTopLevel(inner, full)
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, &ParseError{Expr: full, Msg: "Union requires at least one type argument"}
		}
		union := &Expr{Kind: KindUnion}
		for _, arg := range args {
			member, err := parse(arg, full)
			if err != nil {
				return nil, err
			}
			union.Args = append(union.Args, member)
		}
		return union, nil
	}

	// Optional[T] desugars to Union[T, None]
	if inner, ok := generic(s, "Optional", "[", "]"); ok {
		elem, err := parse(strings.TrimSpace(inner), full)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: KindUnion, Args: []*Expr{elem, {Kind: KindNone}}}, nil
	}

	return nil, &ParseError{Expr: full, Msg: fmt.Sprintf("unrecognized type %q", s)}
}

// generic matches "name<open>...<close>" and returns the bracketed
// content. The closing bracket must be the final character.
func generic(s, name, open, close string) (string, bool) {
	if !strings.HasPrefix(s, name+open) || !strings.HasSuffix(s, close) {
		return "", false
	}
	return s[len(name)+1 : len(s)-1], true
}

// splitTopLevel splits a generic argument list on commas at bracket
// depth zero, ignoring commas inside nested generics.
func splitTopLevel(s, full string) ([]string, error) {
	var args []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth < 0 {
				return nil, &ParseError{Expr: full, Msg: "unbalanced brackets"}
			}
		case ',':
			if depth == 0 {
				arg := strings.TrimSpace(s[start:i])
				if arg == "" {
					return nil, &ParseError{Expr: full, Msg: "empty type argument"}
				}
				args = append(args, arg)
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, &ParseError{Expr: full, Msg: "unbalanced brackets"}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		args = append(args, tail)
	} else if len(args) > 0 || strings.TrimSpace(s) != "" {
		return nil, &ParseError{Expr: full, Msg: "empty type argument"}
	}
	return args, nil
}
