package codec

import (
	"strings"

	"github.com/goliatone/go-recordform/pkg/board"
)

// Ref points at a person or a linked record: the id the write API wants plus
// the display name the picker showed.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Phone carries the two subfields of a phone column.
type Phone struct {
	Number      string `json:"phone"`
	CountryCode string `json:"countryCode"`
}

// Link carries a URL plus its optional display text.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// FileRef describes a file already attached to the record. Existing files are
// immutable through this engine; they are carried for display only.
type FileRef struct {
	AssetID string `json:"assetId"`
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
}

// FileSet splits a file column between what the service already holds and
// what the user staged locally for the upload phase.
type FileSet struct {
	Existing []FileRef
	Staged   []board.FileHandle
}

// FormValue is the UI-side value of one column, tagged by column type. Only
// the field matching Type is meaningful; the codec switches on Type
// exhaustively in both directions.
type FormValue struct {
	Type board.ColumnType

	// Text backs the string-shaped types: text, long_text, name, numbers,
	// date (ISO), email, formula, mirror, and the status option index.
	Text string

	Checked   bool  // checkbox
	OptionIDs []int // dropdown

	People    []Ref // people
	Relations []Ref // board_relation

	Phone Phone   // phone
	Link  Link    // link
	Files FileSet // file
}

// Text builds a string-shaped FormValue for the given column type.
func Text(t board.ColumnType, s string) FormValue {
	return FormValue{Type: t, Text: s}
}

// IsEmpty reports whether the value counts as unset for its type. Empty
// values are omitted from write payloads and fail required-field checks.
func (v FormValue) IsEmpty() bool {
	switch v.Type {
	case board.ColumnCheckbox:
		return !v.Checked
	case board.ColumnDropdown:
		return len(v.OptionIDs) == 0
	case board.ColumnPeople:
		return len(v.People) == 0
	case board.ColumnBoardRelation:
		return len(v.Relations) == 0
	case board.ColumnPhone:
		return strings.TrimSpace(v.Phone.Number) == ""
	case board.ColumnLink:
		return strings.TrimSpace(v.Link.URL) == ""
	case board.ColumnFile:
		return len(v.Files.Existing) == 0 && len(v.Files.Staged) == 0
	default:
		return strings.TrimSpace(v.Text) == ""
	}
}
