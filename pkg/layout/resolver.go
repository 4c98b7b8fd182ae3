package layout

import (
	"encoding/json"
	"strings"

	"github.com/goliatone/go-recordform/pkg/board"
)

// Resolve turns raw layout documents plus a live column snapshot into the
// validated section tree. Resolution never fails as a whole: malformed
// documents produce diagnostic sections, and the rest of the layout keeps
// working. Section order follows input order; field order inside a section
// follows the author's declaration order. Resolve is pure and idempotent:
// identical inputs yield structurally equal output.
func Resolve(docs []RawLayoutDoc, columns []board.ColumnDescriptor) []ValidatedSection {
	columnsByID := make(map[string]board.ColumnDescriptor, len(columns))
	for _, col := range columns {
		columnsByID[col.ID] = col
	}

	type parsed struct {
		doc     RawLayoutDoc
		def     SectionDefinition
		errKind ErrorClass
	}

	sections := make([]parsed, 0, len(docs))
	for _, doc := range docs {
		var def SectionDefinition
		if err := json.Unmarshal([]byte(doc.Payload), &def); err != nil {
			sections = append(sections, parsed{doc: doc, errKind: ErrorParse})
			continue
		}
		if strings.TrimSpace(def.ID) == "" || strings.TrimSpace(def.Title) == "" || def.Fields == nil {
			sections = append(sections, parsed{doc: doc, def: def, errKind: ErrorStructure})
			continue
		}
		sections = append(sections, parsed{doc: doc, def: def})
	}

	// Duplication is a cross-section property computed on declared ids,
	// independent of whether those ids resolve to live columns. Every parsed
	// section contributes its fields, including sections that fail the
	// structural check: a section missing only its title still binds columns.
	usage := make(map[string]int)
	for _, section := range sections {
		if section.errKind == ErrorParse {
			continue
		}
		for _, field := range section.def.Fields {
			usage[field.ColumnID]++
		}
	}

	out := make([]ValidatedSection, 0, len(sections))
	for _, section := range sections {
		if section.errKind != "" {
			out = append(out, ValidatedSection{
				Definition: section.def,
				Valid:      false,
				Error:      section.errKind,
				SourceDoc:  section.doc.ID,
			})
			continue
		}

		resolved := ValidatedSection{
			Definition: section.def,
			Valid:      true,
			FullyValid: true,
			SourceDoc:  section.doc.ID,
		}
		for _, binding := range section.def.Fields {
			col, known := columnsByID[binding.ColumnID]
			field := ValidatedField{
				FieldBinding: binding,
				Valid:        known,
				Duplicate:    usage[binding.ColumnID] > 1,
			}
			if known {
				if field.Label == "" {
					field.Label = col.Title
				}
				if field.Type == "" {
					field.Type = col.Type
				}
			}
			// An invalid field has no safe default label.
			if !field.Valid || field.Duplicate {
				resolved.FullyValid = false
			}
			resolved.Fields = append(resolved.Fields, field)
		}
		out = append(out, resolved)
	}
	return out
}
