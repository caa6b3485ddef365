package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/schemakit/schemakit/model"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestReadRecordsSingleObject(t *testing.T) {
	path := writeTemp(t, "one.json", `{"title": "hello", "views": 3}`)
	records, err := readRecords(path)
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	want := []map[string]any{{"title": "hello", "views": json.Number("3")}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRecordsIntegerFieldsValidate(t *testing.T) {
	// JSON-sourced integers must pass an int type expression, top level
	// and nested alike.
	path := writeTemp(t, "views.json", `{"title": "hello", "views": 3, "scores": [1, 2]}`)
	records, err := readRecords(path)
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}

	def := &model.Definition{
		Name: "Article",
		Fields: model.FieldList{
			{Name: "title", Type: "str", Required: true},
			{Name: "views", Type: "int"},
			{Name: "scores", Type: "List[int]"},
		},
	}
	result := model.NewValidator(nil).Validate(records[0], def, false)
	if !result.IsValid() {
		t.Fatalf("JSON-sourced record rejected: %v", result.Errors)
	}
}

func TestReadRecordsArray(t *testing.T) {
	path := writeTemp(t, "many.json", `[{"title": "a"}, {"title": "b"}]`)
	records, err := readRecords(path)
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestReadRecordsRejectsScalar(t *testing.T) {
	path := writeTemp(t, "bad.json", `"just a string"`)
	if _, err := readRecords(path); err == nil {
		t.Fatal("expected an error for a non-object document")
	}
}
