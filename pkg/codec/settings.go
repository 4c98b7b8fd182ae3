package codec

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/goliatone/go-recordform/pkg/board"
)

const (
	defaultDelimiter   = ", "
	defaultCountryCode = "US"
)

// columnSettings is the subset of the service's opaque per-column settings
// the codec cares about. Unknown keys are ignored.
type columnSettings struct {
	Labels         map[string]string `json:"labels,omitempty"`
	Delimiter      string            `json:"delimiter,omitempty"`
	DefaultCountry string            `json:"defaultCountryShortName,omitempty"`
	BoardIDs       []json.Number     `json:"boardIds,omitempty"`
}

func settingsFor(col board.ColumnDescriptor) columnSettings {
	var s columnSettings
	if len(col.Settings) > 0 {
		// Malformed settings degrade to defaults rather than failing decode.
		_ = json.Unmarshal(col.Settings, &s)
	}
	return s
}

func (s columnSettings) delimiter() string {
	if s.Delimiter != "" {
		return s.Delimiter
	}
	return defaultDelimiter
}

func (s columnSettings) defaultCountry() string {
	if s.DefaultCountry != "" {
		return s.DefaultCountry
	}
	return defaultCountryCode
}

// Option is one selectable status or dropdown entry declared in the column
// settings.
type Option struct {
	ID    int
	Label string
}

// Options extracts the selectable entries of a status or dropdown column,
// sorted by id. Columns without label settings yield nil.
func Options(col board.ColumnDescriptor) []Option {
	s := settingsFor(col)
	if len(s.Labels) == 0 {
		return nil
	}
	out := make([]Option, 0, len(s.Labels))
	for key, label := range s.Labels {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out = append(out, Option{ID: id, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LinkedBoardIDs reports the target board ids a board_relation column fans
// out to, in declaration order.
func LinkedBoardIDs(col board.ColumnDescriptor) []string {
	s := settingsFor(col)
	if len(s.BoardIDs) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.BoardIDs))
	for _, id := range s.BoardIDs {
		out = append(out, id.String())
	}
	return out
}
