package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const blogPostYAML = `
name: BlogPost
description: A published article
fields:
  id:
    type: str(format=uuid)
    required: true
  title:
    type: str
    required: true
    description: Display title
  published_at:
    type: Optional[datetime]
  tags:
    type: List[str]
    default_factory: empty_list
    indexed: true
metadata:
  required: [id, title]
  recommended: [tags]
validators:
  - name: non_empty
    fields: [title]
    phase: pre
`

func TestDefinitionYAMLPreservesFieldOrder(t *testing.T) {
	var def Definition
	if err := yaml.Unmarshal([]byte(blogPostYAML), &def); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"id", "title", "published_at", "tags"}
	if diff := cmp.Diff(want, def.Fields.Names()); diff != "" {
		t.Errorf("field order mismatch (-want +got):\n%s", diff)
	}

	title, ok := def.Fields.Get("title")
	if !ok || !title.Required || title.Description != "Display title" {
		t.Errorf("title field decoded incorrectly: %+v", title)
	}
	tags, _ := def.Fields.Get("tags")
	if !tags.Indexed || tags.DefaultFactory != "empty_list" {
		t.Errorf("tags field decoded incorrectly: %+v", tags)
	}
	if len(def.Validators) != 1 || def.Validators[0].Phase != PhasePre {
		t.Errorf("validators decoded incorrectly: %+v", def.Validators)
	}
}

func TestDefinitionYAMLFieldSequence(t *testing.T) {
	src := `
name: Simple
fields:
  - name: id
    type: str
  - name: count
    type: int
`
	var def Definition
	if err := yaml.Unmarshal([]byte(src), &def); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"id", "count"}
	if diff := cmp.Diff(want, def.Fields.Names()); diff != "" {
		t.Errorf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestTableName(t *testing.T) {
	tests := []struct {
		name     string
		def      Definition
		expected string
	}{
		{"lowercases camel case", Definition{Name: "BlogPost"}, "blog_post"},
		{"plain name", Definition{Name: "website"}, "website"},
		{"metadata override", Definition{Name: "BlogPost", Metadata: Metadata{TableName: "posts"}}, "posts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.def.TableName(); got != tt.expected {
				t.Errorf("TableName() = %q, want %q", got, tt.expected)
			}
		})
	}
}
