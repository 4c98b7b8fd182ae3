package export

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/layout"
)

func testSections() []layout.ValidatedSection {
	return []layout.ValidatedSection{
		{
			Definition: layout.SectionDefinition{ID: "general", Title: "General"},
			Fields: []layout.ValidatedField{
				{FieldBinding: layout.FieldBinding{ColumnID: "c_text", Label: "Notes", Type: board.ColumnText}, Valid: true},
				{FieldBinding: layout.FieldBinding{ColumnID: "c_status", Label: "Status", Type: board.ColumnStatus, Required: true}, Valid: true},
				{FieldBinding: layout.FieldBinding{ColumnID: "c_due", Label: "Due", Type: board.ColumnDate}, Valid: true},
				{FieldBinding: layout.FieldBinding{ColumnID: "c_mirror", Label: "Computed", Type: board.ColumnMirror}, Valid: true},
			},
			Valid:      true,
			FullyValid: true,
		},
		{
			Definition: layout.SectionDefinition{ID: "broken", Title: "Broken"},
			Fields: []layout.ValidatedField{
				{FieldBinding: layout.FieldBinding{ColumnID: "c_ghost", Label: "Ghost", Type: board.ColumnText}},
			},
			Valid: true,
		},
	}
}

func testColumns() []board.ColumnDescriptor {
	return []board.ColumnDescriptor{
		{ID: "c_text", Title: "Notes", Type: board.ColumnText},
		{ID: "c_status", Title: "Status", Type: board.ColumnStatus,
			Settings: json.RawMessage(`{"labels":{"0":"Open","1":"Done"}}`)},
		{ID: "c_due", Title: "Due", Type: board.ColumnDate},
	}
}

func TestDocumentDescribesSubmittableFields(t *testing.T) {
	doc, err := Document(context.Background(), testSections(), testColumns(), Options{})
	if err != nil {
		t.Fatalf("Document: %v", err)
	}

	if doc.OpenAPI != "3.0.3" {
		t.Errorf("OpenAPI = %q, want 3.0.3", doc.OpenAPI)
	}
	item := doc.Paths.Value("/records")
	if item == nil || item.Post == nil {
		t.Fatal("expected a POST /records operation")
	}

	body := item.Post.RequestBody.Value.Content.Get("application/json").Schema.Value
	var props []string
	for name := range body.Properties {
		props = append(props, name)
	}
	wantProps := map[string]bool{"c_text": true, "c_status": true, "c_due": true}
	if len(props) != len(wantProps) {
		t.Fatalf("properties = %v, want exactly %v", props, wantProps)
	}
	for _, name := range props {
		if !wantProps[name] {
			t.Errorf("unexpected property %q", name)
		}
	}

	if diff := cmp.Diff([]string{"c_status"}, body.Required); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}

	status := body.Properties["c_status"].Value
	if diff := cmp.Diff([]any{"Open", "Done"}, status.Enum); diff != "" {
		t.Errorf("status enum mismatch (-want +got):\n%s", diff)
	}
	due := body.Properties["c_due"].Value
	if due.Format != "date" {
		t.Errorf("due format = %q, want date", due.Format)
	}
	if due.Description != "Due" {
		t.Errorf("due description = %q, want field label", due.Description)
	}
}

func TestDocumentSkipsReadOnlyAndInvalidSections(t *testing.T) {
	doc, err := Document(context.Background(), testSections(), testColumns(), Options{SubmitPath: "/submit"})
	if err != nil {
		t.Fatalf("Document: %v", err)
	}

	body := doc.Paths.Value("/submit").Post.RequestBody.Value.Content.Get("application/json").Schema.Value
	if _, ok := body.Properties["c_mirror"]; ok {
		t.Error("read-only mirror column should not be exported")
	}
	if _, ok := body.Properties["c_ghost"]; ok {
		t.Error("fields from invalid sections should not be exported")
	}
}

func TestDocumentRejectsEmptySchema(t *testing.T) {
	if _, err := Document(context.Background(), nil, nil, Options{}); err == nil {
		t.Error("expected an error for no sections")
	}

	sections := []layout.ValidatedSection{{
		Definition: layout.SectionDefinition{ID: "s", Title: "S"},
		Fields: []layout.ValidatedField{
			{FieldBinding: layout.FieldBinding{ColumnID: "c_f", Label: "F", Type: board.ColumnFormula}, Valid: true},
		},
		Valid:      true,
		FullyValid: true,
	}}
	if _, err := Document(context.Background(), sections, nil, Options{}); err == nil {
		t.Error("expected an error when every field is read-only")
	}
}
