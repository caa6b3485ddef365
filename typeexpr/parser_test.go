package typeexpr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *Expr
	}{
		{"scalar str", "str", &Expr{Kind: KindString}},
		{"scalar int", "int", &Expr{Kind: KindInt}},
		{"scalar float", "float", &Expr{Kind: KindFloat}},
		{"scalar bool", "bool", &Expr{Kind: KindBool}},
		{"scalar datetime", "datetime", &Expr{Kind: KindDatetime}},
		{"untyped dict", "dict", &Expr{Kind: KindDict}},
		{"any", "any", &Expr{Kind: KindAny}},
		{"Any alias", "Any", &Expr{Kind: KindAny}},
		{"none", "None", &Expr{Kind: KindNone}},
		{"whitespace tolerated", "  str  ", &Expr{Kind: KindString}},
		{
			"uuid format",
			"str(format=uuid)",
			&Expr{Kind: KindString, Format: FormatUUID},
		},
		{
			"date-time format",
			"str(format=date-time)",
			&Expr{Kind: KindString, Format: FormatDateTime},
		},
		{
			"simple list",
			"List[int]",
			&Expr{Kind: KindList, Elem: &Expr{Kind: KindInt}},
		},
		{
			"simple dict",
			"Dict[str, int]",
			&Expr{Kind: KindMap, Key: &Expr{Kind: KindString}, Value: &Expr{Kind: KindInt}},
		},
		{
			"nested generic in dict value",
			"Dict[str, List[int]]",
			&Expr{
				Kind:  KindMap,
				Key:   &Expr{Kind: KindString},
				Value: &Expr{Kind: KindList, Elem: &Expr{Kind: KindInt}},
			},
		},
		{
			"dict nested on both sides",
			"Dict[str, Dict[str, List[float]]]",
			&Expr{
				Kind: KindMap,
				Key:  &Expr{Kind: KindString},
				Value: &Expr{
					Kind: KindMap,
					Key:  &Expr{Kind: KindString},
					Value: &Expr{
						Kind: KindList,
						Elem: &Expr{Kind: KindFloat},
					},
				},
			},
		},
		{
			"list of dicts",
			"List[Dict[str, int]]",
			&Expr{
				Kind: KindList,
				Elem: &Expr{Kind: KindMap, Key: &Expr{Kind: KindString}, Value: &Expr{Kind: KindInt}},
			},
		},
		{
			"union",
			"Union[str, int]",
			&Expr{Kind: KindUnion, Args: []*Expr{{Kind: KindString}, {Kind: KindInt}}},
		},
		{
			"union with nested generic member",
			"Union[str, List[Union[int, float]]]",
			&Expr{Kind: KindUnion, Args: []*Expr{
				{Kind: KindString},
				{Kind: KindList, Elem: &Expr{Kind: KindUnion, Args: []*Expr{{Kind: KindInt}, {Kind: KindFloat}}}},
			}},
		},
		{
			"optional desugars to union with none",
			"Optional[str]",
			&Expr{Kind: KindUnion, Args: []*Expr{{Kind: KindString}, {Kind: KindNone}}},
		},
		{
			"optional of generic",
			"Optional[List[int]]",
			&Expr{Kind: KindUnion, Args: []*Expr{
				{Kind: KindList, Elem: &Expr{Kind: KindInt}},
				{Kind: KindNone},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.src, err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreUnexported(Expr{})); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unknown scalar", "varchar"},
		{"unknown generic", "Set[int]"},
		{"unbalanced open", "List[Dict[str, int]"},
		{"unbalanced close", "List[int]]"},
		{"dict with one argument", "Dict[str]"},
		{"dict with three arguments", "Dict[str, int, bool]"},
		{"empty union", "Union[]"},
		{"trailing comma", "Dict[str, int,]"},
		{"leading comma", "Dict[, int]"},
		{"unknown format", "str(format=email)"},
		{"non-format qualifier", "str(size=10)"},
		{"unknown nested member", "List[whatever]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.src)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse(%q) error = %T, want *ParseError", tt.src, err)
			}
			if parseErr.Expr != tt.src {
				t.Errorf("ParseError.Expr = %q, want %q", parseErr.Expr, tt.src)
			}
		})
	}
}

func TestExprString(t *testing.T) {
	// String keeps the source text, including Optional sugar.
	src := "Optional[Dict[str, List[int]]]"
	expr, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if expr.String() != src {
		t.Errorf("String() = %q, want %q", expr.String(), src)
	}
}

func TestIsOptional(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"str", false},
		{"None", true},
		{"any", true},
		{"Optional[str]", true},
		{"Union[str, int]", false},
		{"Union[str, None]", true},
		{"List[None]", false},
	}
	for _, tt := range tests {
		if got := MustParse(tt.src).IsOptional(); got != tt.want {
			t.Errorf("IsOptional(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestNonNull(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"Optional[str]", "str"},
		{"Union[str, int, None]", "Union[str, int]"},
		{"Union[str, int]", "Union[str, int]"},
		{"int", "int"},
	}
	for _, tt := range tests {
		got := MustParse(tt.src).NonNull()
		if got == nil {
			t.Fatalf("NonNull(%q) = nil", tt.src)
		}
		if got.render() != tt.want {
			t.Errorf("NonNull(%q) = %q, want %q", tt.src, got.render(), tt.want)
		}
	}

	if got := MustParse("None").NonNull(); got != nil {
		t.Errorf("NonNull(None) = %v, want nil", got)
	}
}
