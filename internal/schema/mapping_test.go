package schema

import (
	"errors"
	"testing"

	"github.com/schemakit/schemakit/typeexpr"
)

func TestMapDeclaredType(t *testing.T) {
	tests := []struct {
		expr string
		want StorageType
	}{
		{"str", StorageText},
		{"str(format=uuid)", StorageUUID},
		{"str(format=date-time)", StorageTimestampTZ},
		{"int", StorageInteger},
		{"float", StorageNumeric},
		{"bool", StorageBoolean},
		{"datetime", StorageTimestampTZ},
		{"dict", StorageJSONB},
		{"any", StorageJSONB},
		{"List[str]", StorageJSONB},
		{"Dict[str, int]", StorageJSONB},
		{"Optional[str]", StorageText},
		{"Optional[int]", StorageInteger},
		{"Union[str, None]", StorageText},
		// Members agree on storage, so the union maps cleanly.
		{"Union[int, int]", StorageInteger},
		{"Union[List[str], dict]", StorageJSONB},
		{"Optional[List[int]]", StorageJSONB},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := typeexpr.Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.expr, err)
			}
			got, err := MapDeclaredType(expr)
			if err != nil {
				t.Fatalf("MapDeclaredType(%q): %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("MapDeclaredType(%q) = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestMapDeclaredTypeRefusesAmbiguity(t *testing.T) {
	tests := []string{
		"Union[str, int]",
		"Union[bool, float]",
		"Optional[Union[str, int]]",
		"None",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			expr, err := typeexpr.Parse(src)
			if err != nil {
				t.Fatalf("Parse(%q): %v", src, err)
			}
			_, err = MapDeclaredType(expr)
			var recErr *ReconciliationError
			if !errors.As(err, &recErr) {
				t.Fatalf("MapDeclaredType(%q) error = %v, want *ReconciliationError", src, err)
			}
		})
	}
}

func TestObservedStorage(t *testing.T) {
	tests := []struct {
		dataType string
		want     StorageType
	}{
		{"text", StorageText},
		{"character varying", StorageText},
		{"uuid", StorageUUID},
		{"integer", StorageInteger},
		{"bigint", StorageInteger},
		{"numeric", StorageNumeric},
		{"double precision", StorageNumeric},
		{"boolean", StorageBoolean},
		{"timestamp with time zone", StorageTimestampTZ},
		{"timestamp without time zone", StorageTimestamp},
		{"jsonb", StorageJSONB},
		{"json", StorageJSONB},
		{"bytea", StorageType("bytea")},
	}
	for _, tt := range tests {
		if got := observedStorage(tt.dataType); got != tt.want {
			t.Errorf("observedStorage(%q) = %s, want %s", tt.dataType, got, tt.want)
		}
	}
}
