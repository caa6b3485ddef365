package schemakit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/schemakit/schemakit"
	"github.com/schemakit/schemakit/model"
)

func newTestClient(t *testing.T) *schemakit.Client {
	t.Helper()
	return schemakit.NewClient(nil, schemakit.Options{})
}

func articleDefinition() *schemakit.Definition {
	return &schemakit.Definition{
		Name: "Article",
		Fields: schemakit.FieldList{
			{Name: "id", Type: "str(format=uuid)", Required: true, DefaultFactory: "uuid"},
			{Name: "title", Type: "str", Required: true},
			{Name: "tags", Type: "List[str]", Indexed: true, DefaultFactory: "empty_list"},
			{Name: "views", Type: "int", Default: 0},
		},
	}
}

func TestClientRegisterAndValidate(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.RegisterModel(ctx, articleDefinition(), schemakit.ModeStrict); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}

	result, err := client.Validate("Article", map[string]any{
		"id":    "b4f9ed01-6c7b-4e39-9f4a-52f0a3b4c111",
		"title": "hello",
		"tags":  []any{"go", "schemas"},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.IsValid() {
		t.Fatalf("expected a valid record, got errors %v", result.Errors)
	}
	if result.Normalized["views"] != 0 {
		t.Errorf("default for views not applied: %v", result.Normalized["views"])
	}
}

func TestClientValidateCollectsAllErrors(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	if _, err := client.RegisterModel(ctx, articleDefinition(), schemakit.ModeStrict); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}

	result, err := client.Validate("Article", map[string]any{
		"id":   12345,
		"tags": []any{"ok", 7},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.IsValid() {
		t.Fatal("expected validation errors")
	}

	fields := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		fields[i] = e.Field
	}
	want := []string{"id", "title", "tags[1]"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("error fields mismatch (-want +got):\n%s", diff)
	}
}

func TestClientValidateUnknownModel(t *testing.T) {
	client := newTestClient(t)
	_, err := client.Validate("Nope", map[string]any{})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestClientGenerateDDL(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	if _, err := client.RegisterModel(ctx, articleDefinition(), schemakit.ModeStrict); err != nil {
		t.Fatalf("RegisterModel: %v", err)
	}

	stmts, err := client.GenerateDDL("Article")
	if err != nil {
		t.Fatalf("GenerateDDL: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected create + one index, got %d statements: %v", len(stmts), stmts)
	}
}

func TestClientRegisterModelYAML(t *testing.T) {
	doc := []byte(`
name: Event
fields:
  id:
    type: str(format=uuid)
    required: true
  kind:
    type: str
    required: true
  payload:
    type: dict
    default_factory: empty_dict
`)
	ctx := context.Background()
	client := newTestClient(t)

	def, err := client.RegisterModelYAML(ctx, doc, schemakit.ModeStrict)
	if err != nil {
		t.Fatalf("RegisterModelYAML: %v", err)
	}
	want := []string{"id", "kind", "payload"}
	if diff := cmp.Diff(want, def.Fields.Names()); diff != "" {
		t.Errorf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckValue(t *testing.T) {
	tests := []struct {
		typeSrc string
		value   any
		want    bool
	}{
		{"Union[str, int]", "5", true},
		{"Union[str, int]", 5, true},
		{"Union[str, int]", 5.0, false},
		{"Union[str, int]", nil, false},
		{"Optional[str]", nil, true},
	}
	for _, tt := range tests {
		got, err := schemakit.CheckValue(tt.value, tt.typeSrc)
		if err != nil && tt.want {
			t.Errorf("CheckValue(%v, %q): %v", tt.value, tt.typeSrc, err)
		}
		if got != tt.want {
			t.Errorf("CheckValue(%v, %q) = %v, want %v", tt.value, tt.typeSrc, got, tt.want)
		}
	}
}

func TestGenerateBootstrapDDL(t *testing.T) {
	stmts, err := schemakit.GenerateBootstrapDDL(articleDefinition(), "content")
	if err != nil {
		t.Fatalf("GenerateBootstrapDDL: %v", err)
	}
	if len(stmts) == 0 {
		t.Fatal("no statements generated")
	}
}
