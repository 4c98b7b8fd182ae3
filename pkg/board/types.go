package board

import "encoding/json"

// ColumnType enumerates the column kinds the engine understands. Unknown
// types still flow through the resolver; the codec treats them as plain text.
type ColumnType string

const (
	ColumnText          ColumnType = "text"
	ColumnLongText      ColumnType = "long_text"
	ColumnName          ColumnType = "name"
	ColumnNumbers       ColumnType = "numbers"
	ColumnCheckbox      ColumnType = "checkbox"
	ColumnDate          ColumnType = "date"
	ColumnStatus        ColumnType = "status"
	ColumnDropdown      ColumnType = "dropdown"
	ColumnPeople        ColumnType = "people"
	ColumnBoardRelation ColumnType = "board_relation"
	ColumnPhone         ColumnType = "phone"
	ColumnEmail         ColumnType = "email"
	ColumnLink          ColumnType = "link"
	ColumnFile          ColumnType = "file"
	ColumnFormula       ColumnType = "formula"
	ColumnMirror        ColumnType = "mirror"
)

// ReadOnly reports whether values of this type are computed by the record
// service and therefore never written back.
func (t ColumnType) ReadOnly() bool {
	return t == ColumnFormula || t == ColumnMirror
}

// ColumnDescriptor is an immutable snapshot of one typed slot in a
// collection's schema. Settings carries the service's opaque per-column
// configuration (status labels, delimiters, linked board ids).
type ColumnDescriptor struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Type     ColumnType      `json:"type"`
	Settings json.RawMessage `json:"settings_str,omitempty"`
}

// ColumnValue is the wire representation of one column on one record. The
// service always exposes two channels: Value holds the structured JSON source
// of truth, Text a human-readable rendering. Board-relation columns carry
// their display names in DisplayValue instead of Text.
type ColumnValue struct {
	ID           string     `json:"id"`
	Title        string     `json:"title,omitempty"`
	Type         ColumnType `json:"type"`
	Text         string     `json:"text"`
	Value        string     `json:"value,omitempty"`
	DisplayValue string     `json:"display_value,omitempty"`
}

// RecordSummary identifies a record inside lookup pickers. Origin fields are
// populated when candidates from several boards are merged into one list.
type RecordSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	OriginBoardID   string `json:"originBoardId,omitempty"`
	OriginBoardName string `json:"originBoardName,omitempty"`
}

// Item is a fully hydrated record with its typed column values.
type Item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	BoardID      string        `json:"boardId,omitempty"`
	BoardName    string        `json:"boardName,omitempty"`
	ColumnValues []ColumnValue `json:"columnValues"`
}

// User describes a directory entry used by people pickers.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}
