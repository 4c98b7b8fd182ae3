package codec

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/goliatone/go-recordform/pkg/board"
)

// Decode converts the wire value of one column into its UI representation.
// The structured Value channel is the source of truth; the human-readable
// Text channel is the fallback when Value is absent or fails to parse, so the
// codec degrades gracefully when a column type evolves under it.
func Decode(cv board.ColumnValue, col board.ColumnDescriptor) FormValue {
	switch col.Type {
	case board.ColumnText, board.ColumnLongText, board.ColumnName:
		return Text(col.Type, textOrValue(cv))
	case board.ColumnNumbers:
		return Text(col.Type, textOrValue(cv))
	case board.ColumnCheckbox:
		return FormValue{Type: col.Type, Checked: decodeCheckbox(cv)}
	case board.ColumnDate:
		return Text(col.Type, decodeDate(cv))
	case board.ColumnStatus:
		return Text(col.Type, decodeStatus(cv))
	case board.ColumnDropdown:
		return FormValue{Type: col.Type, OptionIDs: decodeDropdown(cv)}
	case board.ColumnPeople:
		return FormValue{Type: col.Type, People: decodePeople(cv, col)}
	case board.ColumnBoardRelation:
		return FormValue{Type: col.Type, Relations: decodeRelations(cv, col)}
	case board.ColumnPhone:
		return FormValue{Type: col.Type, Phone: decodePhone(cv, col)}
	case board.ColumnEmail:
		return Text(col.Type, decodeEmail(cv))
	case board.ColumnLink:
		return FormValue{Type: col.Type, Link: decodeLink(cv)}
	case board.ColumnFile:
		return FormValue{Type: col.Type, Files: decodeFiles(cv, col)}
	case board.ColumnFormula, board.ColumnMirror:
		return Text(col.Type, cv.Text)
	default:
		return Text(col.Type, textOrValue(cv))
	}
}

// DecodeItem runs Decode over every column value of a hydrated record,
// keyed by column id. Columns absent from the descriptor set are skipped:
// the codec never sees a value without its column.
func DecodeItem(item *board.Item, columns []board.ColumnDescriptor) map[string]FormValue {
	if item == nil {
		return nil
	}
	byID := make(map[string]board.ColumnDescriptor, len(columns))
	for _, col := range columns {
		byID[col.ID] = col
	}
	out := make(map[string]FormValue, len(item.ColumnValues))
	for _, cv := range item.ColumnValues {
		col, ok := byID[cv.ID]
		if !ok {
			continue
		}
		out[col.ID] = Decode(cv, col)
	}
	return out
}

func textOrValue(cv board.ColumnValue) string {
	if cv.Text != "" {
		return cv.Text
	}
	return unquote(cv.Value)
}

// unquote strips one JSON string layer when the raw value is a quoted
// scalar; otherwise the raw text is returned as-is.
func unquote(raw string) string {
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	return raw
}

func decodeCheckbox(cv board.ColumnValue) bool {
	var payload struct {
		Checked string `json:"checked"`
	}
	if cv.Value != "" && json.Unmarshal([]byte(cv.Value), &payload) == nil && payload.Checked != "" {
		return payload.Checked == "true" || payload.Checked == "v"
	}
	return cv.Text == "v" || cv.Text == "true"
}

func decodeDate(cv board.ColumnValue) string {
	var payload struct {
		Date string `json:"date"`
	}
	if cv.Value != "" && json.Unmarshal([]byte(cv.Value), &payload) == nil && payload.Date != "" {
		return payload.Date
	}
	return cv.Text
}

func decodeStatus(cv board.ColumnValue) string {
	var payload struct {
		Index *int `json:"index"`
	}
	if cv.Value != "" && json.Unmarshal([]byte(cv.Value), &payload) == nil && payload.Index != nil {
		return strconv.Itoa(*payload.Index)
	}
	return ""
}

func decodeDropdown(cv board.ColumnValue) []int {
	var payload struct {
		IDs []int `json:"ids"`
	}
	if cv.Value == "" || json.Unmarshal([]byte(cv.Value), &payload) != nil {
		return nil
	}
	return payload.IDs
}

func decodePeople(cv board.ColumnValue, col board.ColumnDescriptor) []Ref {
	var payload struct {
		PersonsAndTeams []struct {
			ID   json.Number `json:"id"`
			Kind string      `json:"kind"`
		} `json:"personsAndTeams"`
	}
	if cv.Value == "" || json.Unmarshal([]byte(cv.Value), &payload) != nil {
		return nil
	}
	ids := make([]string, 0, len(payload.PersonsAndTeams))
	for _, entry := range payload.PersonsAndTeams {
		ids = append(ids, entry.ID.String())
	}
	names := splitList(cv.Text, settingsFor(col).delimiter())
	return pairRefs(ids, names)
}

func decodeRelations(cv board.ColumnValue, col board.ColumnDescriptor) []Ref {
	var payload struct {
		LinkedPulseIDs []struct {
			LinkedPulseID json.Number `json:"linkedPulseId"`
		} `json:"linkedPulseIds"`
		ItemIDs []json.Number `json:"item_ids"`
	}
	if cv.Value == "" || json.Unmarshal([]byte(cv.Value), &payload) != nil {
		return nil
	}
	var ids []string
	for _, entry := range payload.LinkedPulseIDs {
		ids = append(ids, entry.LinkedPulseID.String())
	}
	for _, id := range payload.ItemIDs {
		ids = append(ids, id.String())
	}
	names := splitList(cv.DisplayValue, settingsFor(col).delimiter())
	return pairRefs(ids, names)
}

func decodePhone(cv board.ColumnValue, col board.ColumnDescriptor) Phone {
	var payload struct {
		Phone            string `json:"phone"`
		CountryShortName string `json:"countryShortName"`
	}
	if cv.Value == "" || json.Unmarshal([]byte(cv.Value), &payload) != nil {
		if cv.Text == "" {
			return Phone{}
		}
		return Phone{Number: cv.Text, CountryCode: settingsFor(col).defaultCountry()}
	}
	country := payload.CountryShortName
	if country == "" {
		country = settingsFor(col).defaultCountry()
	}
	return Phone{Number: payload.Phone, CountryCode: country}
}

func decodeEmail(cv board.ColumnValue) string {
	var payload struct {
		Email string `json:"email"`
	}
	if cv.Value != "" && json.Unmarshal([]byte(cv.Value), &payload) == nil && payload.Email != "" {
		return payload.Email
	}
	return cv.Text
}

func decodeLink(cv board.ColumnValue) Link {
	var payload struct {
		URL  string `json:"url"`
		Text string `json:"text"`
	}
	if cv.Value == "" || json.Unmarshal([]byte(cv.Value), &payload) != nil {
		return Link{URL: cv.Text, Text: cv.Text}
	}
	return Link{URL: payload.URL, Text: payload.Text}
}

func decodeFiles(cv board.ColumnValue, col board.ColumnDescriptor) FileSet {
	var payload struct {
		Files []struct {
			AssetID json.Number `json:"assetId"`
			Name    string      `json:"name"`
		} `json:"files"`
	}
	if cv.Value == "" || json.Unmarshal([]byte(cv.Value), &payload) != nil {
		return FileSet{}
	}
	urls := splitList(cv.Text, settingsFor(col).delimiter())
	existing := make([]FileRef, 0, len(payload.Files))
	for i, f := range payload.Files {
		ref := FileRef{AssetID: f.AssetID.String(), Name: f.Name}
		if i < len(urls) {
			ref.URL = urls[i]
		}
		existing = append(existing, ref)
	}
	if len(existing) == 0 {
		return FileSet{}
	}
	return FileSet{Existing: existing}
}

func splitList(s, delimiter string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, delimiter)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

// pairRefs joins ids with display names positionally. The two lists come
// from independently delimited strings, so a length mismatch is a known
// data-quality edge (for example a renamed record); the raw id stands in
// for the missing name.
func pairRefs(ids, names []string) []Ref {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Ref, 0, len(ids))
	for i, id := range ids {
		name := id
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		out = append(out, Ref{ID: id, Name: name})
	}
	return out
}
