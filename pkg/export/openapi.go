// Package export publishes a resolved form schema as an OpenAPI 3 document so
// downstream tooling can generate clients for the submission endpoint.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/codec"
	"github.com/goliatone/go-recordform/pkg/layout"
)

// Options shape the generated document.
type Options struct {
	// Title becomes the document's info title. Defaults to "Record Form".
	Title string
	// Version becomes the info version. Defaults to "1.0.0".
	Version string
	// SubmitPath is the path of the generated submission operation.
	// Defaults to "/records".
	SubmitPath string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Title) == "" {
		o.Title = "Record Form"
	}
	if strings.TrimSpace(o.Version) == "" {
		o.Version = "1.0.0"
	}
	if strings.TrimSpace(o.SubmitPath) == "" {
		o.SubmitPath = "/records"
	}
	return o
}

// Document builds an OpenAPI 3 description of the submission surface implied
// by the resolved sections: one POST operation whose request body carries a
// property per submittable field. Fields from sections that failed validation
// and read-only column types are left out, matching what the submitter will
// actually accept.
func Document(ctx context.Context, sections []layout.ValidatedSection, columns []board.ColumnDescriptor, opts Options) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, errors.New("export: no sections to describe")
	}
	opts = opts.withDefaults()

	byID := make(map[string]board.ColumnDescriptor, len(columns))
	for _, col := range columns {
		byID[col.ID] = col
	}

	body := openapi3.NewObjectSchema()
	body.Properties = openapi3.Schemas{}
	var required []string
	seen := make(map[string]bool)

	for _, section := range sections {
		if !section.FullyValid {
			continue
		}
		for _, field := range section.Fields {
			if seen[field.ColumnID] || field.Type.ReadOnly() {
				continue
			}
			seen[field.ColumnID] = true

			schema, err := fieldSchema(field, byID[field.ColumnID])
			if err != nil {
				return nil, err
			}
			body.Properties[field.ColumnID] = schema.NewRef()
			if field.Required {
				required = append(required, field.ColumnID)
			}
		}
	}
	if len(body.Properties) == 0 {
		return nil, errors.New("export: no submittable fields in the resolved schema")
	}
	body.Required = required

	operation := &openapi3.Operation{
		OperationID: "submitRecord",
		Summary:     "Submit a record",
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchema(body),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(201, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Record created").
					WithJSONSchema(openapi3.NewObjectSchema().
						WithProperty("id", openapi3.NewStringSchema()).
						WithProperty("name", openapi3.NewStringSchema())),
			}),
			openapi3.WithStatus(422, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Validation failed"),
			}),
		),
	}

	paths := openapi3.NewPaths()
	paths.Set(opts.SubmitPath, &openapi3.PathItem{Post: operation})

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   opts.Title,
			Version: opts.Version,
		},
		Paths: paths,
	}, nil
}

func fieldSchema(field layout.ValidatedField, col board.ColumnDescriptor) (*openapi3.Schema, error) {
	var schema *openapi3.Schema
	switch field.Type {
	case board.ColumnText, board.ColumnLongText, board.ColumnName, board.ColumnPhone:
		schema = openapi3.NewStringSchema()
	case board.ColumnNumbers:
		schema = openapi3.NewFloat64Schema()
	case board.ColumnCheckbox:
		schema = openapi3.NewBoolSchema()
	case board.ColumnDate:
		schema = openapi3.NewStringSchema().WithFormat("date")
	case board.ColumnEmail:
		schema = openapi3.NewStringSchema().WithFormat("email")
	case board.ColumnLink:
		schema = openapi3.NewStringSchema().WithFormat("uri")
	case board.ColumnStatus:
		schema = openapi3.NewStringSchema()
		schema.Enum = optionEnum(col)
	case board.ColumnDropdown:
		items := openapi3.NewStringSchema()
		items.Enum = optionEnum(col)
		schema = openapi3.NewArraySchema().WithItems(items)
	case board.ColumnPeople, board.ColumnBoardRelation, board.ColumnFile:
		schema = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	default:
		return nil, fmt.Errorf("export: column %s has unsupported type %q", field.ColumnID, field.Type)
	}
	schema.Description = field.Label
	return schema, nil
}

func optionEnum(col board.ColumnDescriptor) []any {
	options := codec.Options(col)
	if len(options) == 0 {
		return nil
	}
	enum := make([]any, 0, len(options))
	for _, option := range options {
		enum = append(enum, option.Label)
	}
	return enum
}
