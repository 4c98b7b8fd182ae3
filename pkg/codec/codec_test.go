package codec_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/codec"
)

func column(id string, t board.ColumnType) board.ColumnDescriptor {
	return board.ColumnDescriptor{ID: id, Title: id, Type: t}
}

// wireFrom packages an encode result the way the record service would echo
// it back: the structured payload on the value channel plus the display text.
func wireFrom(t *testing.T, col board.ColumnDescriptor, encoded any, text, display string) board.ColumnValue {
	t.Helper()
	raw, err := json.Marshal(encoded)
	if err != nil {
		t.Fatalf("marshal encoded payload: %v", err)
	}
	return board.ColumnValue{
		ID:           col.ID,
		Type:         col.Type,
		Text:         text,
		Value:        string(raw),
		DisplayValue: display,
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		col     board.ColumnDescriptor
		value   codec.FormValue
		text    string
		display string
	}{
		{
			name:  "text",
			col:   column("c_text", board.ColumnText),
			value: codec.Text(board.ColumnText, "hello"),
			text:  "hello",
		},
		{
			name:  "long_text",
			col:   column("c_long", board.ColumnLongText),
			value: codec.Text(board.ColumnLongText, "many words"),
			text:  "many words",
		},
		{
			name:  "name",
			col:   column("c_name", board.ColumnName),
			value: codec.Text(board.ColumnName, "Item 7"),
			text:  "Item 7",
		},
		{
			name:  "numbers",
			col:   column("c_num", board.ColumnNumbers),
			value: codec.Text(board.ColumnNumbers, "42.5"),
			text:  "42.5",
		},
		{
			name:  "checkbox",
			col:   column("c_check", board.ColumnCheckbox),
			value: codec.FormValue{Type: board.ColumnCheckbox, Checked: true},
			text:  "v",
		},
		{
			name:  "date",
			col:   column("c_date", board.ColumnDate),
			value: codec.Text(board.ColumnDate, "2024-03-01"),
			text:  "2024-03-01",
		},
		{
			name:  "status",
			col:   column("c_status", board.ColumnStatus),
			value: codec.Text(board.ColumnStatus, "3"),
			text:  "Done",
		},
		{
			name:  "dropdown",
			col:   column("c_drop", board.ColumnDropdown),
			value: codec.FormValue{Type: board.ColumnDropdown, OptionIDs: []int{3, 7}},
			text:  "Red, Blue",
		},
		{
			name: "people",
			col:  column("c_people", board.ColumnPeople),
			value: codec.FormValue{Type: board.ColumnPeople, People: []codec.Ref{
				{ID: "12", Name: "Ann"},
				{ID: "34", Name: "Bo"},
			}},
			text: "Ann, Bo",
		},
		{
			name: "board_relation",
			col:  column("c_rel", board.ColumnBoardRelation),
			value: codec.FormValue{Type: board.ColumnBoardRelation, Relations: []codec.Ref{
				{ID: "5", Name: "Alpha"},
				{ID: "9", Name: "Beta"},
			}},
			display: "Alpha, Beta",
		},
		{
			name:  "phone",
			col:   column("c_phone", board.ColumnPhone),
			value: codec.FormValue{Type: board.ColumnPhone, Phone: codec.Phone{Number: "5551234567", CountryCode: "US"}},
			text:  "5551234567",
		},
		{
			name:  "email",
			col:   column("c_email", board.ColumnEmail),
			value: codec.Text(board.ColumnEmail, "ann@example.com"),
			text:  "ann@example.com",
		},
		{
			name:  "link",
			col:   column("c_link", board.ColumnLink),
			value: codec.FormValue{Type: board.ColumnLink, Link: codec.Link{URL: "https://example.com", Text: "Example"}},
			text:  "Example - https://example.com",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.value, tc.col)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if encoded == nil {
				t.Fatalf("encode returned nil for a non-empty value")
			}

			got := codec.Decode(wireFrom(t, tc.col, encoded, tc.text, tc.display), tc.col)
			if diff := cmp.Diff(tc.value, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeOmitsEmptyValues(t *testing.T) {
	cases := []struct {
		name  string
		col   board.ColumnDescriptor
		value codec.FormValue
	}{
		{"text", column("c1", board.ColumnText), codec.Text(board.ColumnText, "")},
		{"numbers", column("c2", board.ColumnNumbers), codec.Text(board.ColumnNumbers, "")},
		{"date", column("c3", board.ColumnDate), codec.Text(board.ColumnDate, "")},
		{"status non-numeric", column("c4", board.ColumnStatus), codec.Text(board.ColumnStatus, "")},
		{"dropdown", column("c5", board.ColumnDropdown), codec.FormValue{Type: board.ColumnDropdown}},
		{"people", column("c6", board.ColumnPeople), codec.FormValue{Type: board.ColumnPeople}},
		{"board_relation", column("c7", board.ColumnBoardRelation), codec.FormValue{Type: board.ColumnBoardRelation}},
		{"phone", column("c8", board.ColumnPhone), codec.FormValue{Type: board.ColumnPhone}},
		{"email", column("c9", board.ColumnEmail), codec.Text(board.ColumnEmail, "")},
		{"link", column("c10", board.ColumnLink), codec.FormValue{Type: board.ColumnLink}},
		{"file", column("c11", board.ColumnFile), codec.FormValue{Type: board.ColumnFile}},
		{"formula", column("c12", board.ColumnFormula), codec.Text(board.ColumnFormula, "computed")},
		{"mirror", column("c13", board.ColumnMirror), codec.Text(board.ColumnMirror, "mirrored")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.value, tc.col)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if encoded != nil {
				t.Fatalf("expected omitted payload, got %#v", encoded)
			}
		})
	}
}

func TestEncodePhoneStripsFormatting(t *testing.T) {
	value := codec.FormValue{
		Type:  board.ColumnPhone,
		Phone: codec.Phone{Number: "(555) 123-4567", CountryCode: "US"},
	}

	encoded, err := codec.Encode(value, column("c_phone", board.ColumnPhone))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := map[string]any{"phone": "5551234567", "countryShortName": "US"}
	if diff := cmp.Diff(want, encoded); diff != "" {
		t.Fatalf("phone payload mismatch (-want +got):\n%s", diff)
	}
}

func TestDropdownDecodeAndReencode(t *testing.T) {
	col := column("c_drop", board.ColumnDropdown)
	wire := board.ColumnValue{ID: col.ID, Type: col.Type, Value: `{"ids":[3,7]}`}

	decoded := codec.Decode(wire, col)
	if diff := cmp.Diff([]int{3, 7}, decoded.OptionIDs); diff != "" {
		t.Fatalf("decoded ids mismatch (-want +got):\n%s", diff)
	}

	encoded, err := codec.Encode(decoded, col)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := map[string]any{"ids": []int{3, 7}}
	if diff := cmp.Diff(want, encoded); diff != "" {
		t.Fatalf("re-encoded payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeCheckboxAlwaysEmitsFlag(t *testing.T) {
	col := column("c_check", board.ColumnCheckbox)

	encoded, err := codec.Encode(codec.FormValue{Type: board.ColumnCheckbox}, col)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := map[string]any{"checked": "false"}
	if diff := cmp.Diff(want, encoded); diff != "" {
		t.Fatalf("checkbox payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeLinkNormalizesScheme(t *testing.T) {
	col := column("c_link", board.ColumnLink)

	encoded, err := codec.Encode(codec.FormValue{
		Type: board.ColumnLink,
		Link: codec.Link{URL: "example.com/docs"},
	}, col)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := map[string]any{"url": "https://example.com/docs", "text": "https://example.com/docs"}
	if diff := cmp.Diff(want, encoded); diff != "" {
		t.Fatalf("link payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsMismatchedColumnType(t *testing.T) {
	if _, err := codec.Encode(codec.Text(board.ColumnText, "x"), column("c1", board.ColumnNumbers)); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestDecodeFallsBackToTextChannel(t *testing.T) {
	col := column("c_date", board.ColumnDate)
	wire := board.ColumnValue{ID: col.ID, Type: col.Type, Text: "2024-06-01", Value: "not json"}

	got := codec.Decode(wire, col)
	if got.Text != "2024-06-01" {
		t.Fatalf("expected text-channel fallback, got %q", got.Text)
	}
}

func TestDecodePeoplePairsNamesPositionally(t *testing.T) {
	col := column("c_people", board.ColumnPeople)
	wire := board.ColumnValue{
		ID:    col.ID,
		Type:  col.Type,
		Text:  "Ann",
		Value: `{"personsAndTeams":[{"id":12,"kind":"person"},{"id":34,"kind":"person"}]}`,
	}

	got := codec.Decode(wire, col)
	want := []codec.Ref{
		{ID: "12", Name: "Ann"},
		// Misaligned display list: the raw id stands in for the name.
		{ID: "34", Name: "34"},
	}
	if diff := cmp.Diff(want, got.People); diff != "" {
		t.Fatalf("people mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFilesPairsURLs(t *testing.T) {
	col := column("c_file", board.ColumnFile)
	wire := board.ColumnValue{
		ID:    col.ID,
		Type:  col.Type,
		Text:  "https://files.example.com/a.pdf, https://files.example.com/b.png",
		Value: `{"files":[{"assetId":101,"name":"a.pdf"},{"assetId":102,"name":"b.png"}]}`,
	}

	got := codec.Decode(wire, col)
	want := codec.FileSet{Existing: []codec.FileRef{
		{AssetID: "101", Name: "a.pdf", URL: "https://files.example.com/a.pdf"},
		{AssetID: "102", Name: "b.png", URL: "https://files.example.com/b.png"},
	}}
	if diff := cmp.Diff(want, got.Files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsFromSettings(t *testing.T) {
	col := board.ColumnDescriptor{
		ID:       "c_status",
		Type:     board.ColumnStatus,
		Settings: json.RawMessage(`{"labels":{"0":"Working on it","1":"Done","2":"Stuck"}}`),
	}

	got := codec.Options(col)
	want := []codec.Option{
		{ID: 0, Label: "Working on it"},
		{ID: 1, Label: "Done"},
		{ID: 2, Label: "Stuck"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
