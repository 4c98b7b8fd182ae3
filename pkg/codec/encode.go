package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-recordform/pkg/board"
)

// Encode converts a UI value into the wire payload the write API expects.
// A nil result means "omit this column": the write API treats a present but
// empty value differently from an absent one, and absent leaves the stored
// value untouched on update. File columns are always omitted here; staged
// uploads run as a separate phase after the record write. Read-only types
// (formula, mirror) are never encoded.
func Encode(v FormValue, col board.ColumnDescriptor) (any, error) {
	if v.Type != col.Type {
		return nil, fmt.Errorf("codec: value type %q does not match column %q of type %q", v.Type, col.ID, col.Type)
	}

	switch col.Type {
	case board.ColumnText, board.ColumnLongText, board.ColumnName:
		if v.Text == "" {
			return nil, nil
		}
		return v.Text, nil

	case board.ColumnNumbers:
		if strings.TrimSpace(v.Text) == "" {
			return nil, nil
		}
		if _, err := strconv.ParseFloat(v.Text, 64); err != nil {
			return nil, fmt.Errorf("codec: column %q: %q is not numeric", col.ID, v.Text)
		}
		return v.Text, nil

	case board.ColumnCheckbox:
		checked := "false"
		if v.Checked {
			checked = "true"
		}
		return map[string]any{"checked": checked}, nil

	case board.ColumnDate:
		if strings.TrimSpace(v.Text) == "" {
			return nil, nil
		}
		return map[string]any{"date": v.Text}, nil

	case board.ColumnStatus:
		index, err := strconv.Atoi(strings.TrimSpace(v.Text))
		if err != nil {
			return nil, nil
		}
		return map[string]any{"index": index}, nil

	case board.ColumnDropdown:
		if len(v.OptionIDs) == 0 {
			return nil, nil
		}
		return map[string]any{"ids": v.OptionIDs}, nil

	case board.ColumnPeople:
		if len(v.People) == 0 {
			return nil, nil
		}
		entries := make([]map[string]any, 0, len(v.People))
		for _, person := range v.People {
			id, err := strconv.Atoi(person.ID)
			if err != nil {
				return nil, fmt.Errorf("codec: column %q: person id %q is not numeric", col.ID, person.ID)
			}
			entries = append(entries, map[string]any{"id": id, "kind": "person"})
		}
		return map[string]any{"personsAndTeams": entries}, nil

	case board.ColumnBoardRelation:
		if len(v.Relations) == 0 {
			return nil, nil
		}
		ids := make([]int, 0, len(v.Relations))
		for _, rel := range v.Relations {
			id, err := strconv.Atoi(rel.ID)
			if err != nil {
				return nil, fmt.Errorf("codec: column %q: item id %q is not numeric", col.ID, rel.ID)
			}
			ids = append(ids, id)
		}
		return map[string]any{"item_ids": ids}, nil

	case board.ColumnPhone:
		digits := digitsOnly(v.Phone.Number)
		if digits == "" {
			return nil, nil
		}
		country := v.Phone.CountryCode
		if country == "" {
			country = settingsFor(col).defaultCountry()
		}
		return map[string]any{"phone": digits, "countryShortName": country}, nil

	case board.ColumnEmail:
		if strings.TrimSpace(v.Text) == "" {
			return nil, nil
		}
		return map[string]any{"email": v.Text, "text": v.Text}, nil

	case board.ColumnLink:
		url := normalizeURL(v.Link.URL)
		if url == "" {
			return nil, nil
		}
		text := v.Link.Text
		if text == "" {
			text = url
		}
		return map[string]any{"url": url, "text": text}, nil

	case board.ColumnFile, board.ColumnFormula, board.ColumnMirror:
		return nil, nil

	default:
		if v.Text == "" {
			return nil, nil
		}
		return v.Text, nil
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "://") {
		return trimmed
	}
	return "https://" + trimmed
}
