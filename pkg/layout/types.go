package layout

import "github.com/goliatone/go-recordform/pkg/board"

// RawLayoutDoc is one layout record as fetched from the layout metadata
// collection: an embedded JSON payload describing a single section, the id of
// the collection it applies to, and a numeric ordering hint.
type RawLayoutDoc struct {
	ID                string
	Name              string
	Payload           string
	BoundCollectionID string
	Order             float64
}

// FieldBinding declares one column inside a layout section. A blank Label is
// substituted with the bound column's title at resolution time.
type FieldBinding struct {
	ColumnID string           `json:"columnId"`
	Label    string           `json:"label,omitempty"`
	Type     board.ColumnType `json:"type,omitempty"`
	Required bool             `json:"required,omitempty"`
}

// SectionDefinition is the unit of collapsibility: a titled group of field
// bindings in author-controlled order.
type SectionDefinition struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Fields []FieldBinding `json:"fields"`
}

// ErrorClass distinguishes why a section failed resolution.
type ErrorClass string

const (
	// ErrorParse marks a layout payload that is not valid JSON.
	ErrorParse ErrorClass = "parse"
	// ErrorStructure marks a parsed payload missing id, title, or fields.
	ErrorStructure ErrorClass = "structure"
)

// ValidatedField wraps a binding with its resolution flags. Valid means the
// bound column exists in the live metadata; Duplicate means the same column
// id appears more than once across all sections of the resolved layout.
// The two flags are independent: a field can be invalid and duplicated at
// the same time, and both facts are surfaced.
type ValidatedField struct {
	FieldBinding
	Valid     bool
	Duplicate bool
}

// ValidatedSection is the renderable output of Resolve. Sections that failed
// to parse or lack required structure carry an ErrorClass and are excluded
// from rendering but retained for diagnostics.
type ValidatedSection struct {
	Definition SectionDefinition
	Fields     []ValidatedField
	Valid      bool
	Error      ErrorClass

	// FullyValid is true iff the section itself is valid and every field is
	// valid and non-duplicate. Only fully valid sections are eligible for
	// rendering and submission.
	FullyValid bool

	// SourceDoc points back at the layout record this section came from.
	SourceDoc string
}

// FullyValidSections filters the resolved set down to the sections eligible
// for rendering and submission.
func FullyValidSections(sections []ValidatedSection) []ValidatedSection {
	out := make([]ValidatedSection, 0, len(sections))
	for _, section := range sections {
		if section.FullyValid {
			out = append(out, section)
		}
	}
	return out
}
