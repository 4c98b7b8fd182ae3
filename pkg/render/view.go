package render

import (
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/codec"
	"github.com/goliatone/go-recordform/pkg/layout"
)

// Field is one renderable control. Type is the column type as a plain string
// so template-side comparisons against literals hold.
type Field struct {
	ColumnID string
	Label    string
	Type     string
	Required bool
	ReadOnly bool
	// Options lists the selectable entries of status and dropdown columns.
	Options []codec.Option
	// Value is the control's display string; Checked and Selected cover the
	// control kinds a single string cannot.
	Value    string
	Checked  bool
	Selected []string
	Errors   []string
}

// Section is a titled group of fields.
type Section struct {
	ID     string
	Title  string
	Fields []Field
}

// Form is the renderer-facing view of a resolved schema.
type Form struct {
	Title    string
	Sections []Section
}

// BuildForm projects the fully valid resolved sections into a view model,
// folding in column settings, prefilled values, and validation errors. All
// author-controlled text is sanitized before it reaches a renderer.
func BuildForm(title string, sections []layout.ValidatedSection, columns []board.ColumnDescriptor, opts Options) Form {
	policy := bluemonday.StrictPolicy()

	byID := make(map[string]board.ColumnDescriptor, len(columns))
	for _, col := range columns {
		byID[col.ID] = col
	}

	form := Form{Title: policy.Sanitize(title)}
	for _, section := range layout.FullyValidSections(sections) {
		view := Section{
			ID:    section.Definition.ID,
			Title: policy.Sanitize(section.Definition.Title),
		}
		for _, field := range section.Fields {
			col := byID[field.ColumnID]
			entry := Field{
				ColumnID: field.ColumnID,
				Label:    policy.Sanitize(field.Label),
				Type:     string(field.Type),
				Required: field.Required,
				ReadOnly: field.Type.ReadOnly(),
				Errors:   opts.Errors[field.ColumnID],
			}
			for _, option := range codec.Options(col) {
				option.Label = policy.Sanitize(option.Label)
				entry.Options = append(entry.Options, option)
			}
			if value, ok := opts.Values[field.ColumnID]; ok {
				applyValue(&entry, value)
			}
			view.Fields = append(view.Fields, entry)
		}
		form.Sections = append(form.Sections, view)
	}
	return form
}

func applyValue(field *Field, value codec.FormValue) {
	switch value.Type {
	case board.ColumnCheckbox:
		field.Checked = value.Checked
	case board.ColumnStatus:
		field.Value = value.Text
		if index, err := strconv.Atoi(strings.TrimSpace(value.Text)); err == nil {
			if label, ok := optionLabel(field.Options, index); ok {
				field.Value = label
			}
		}
	case board.ColumnDropdown:
		for _, id := range value.OptionIDs {
			if label, ok := optionLabel(field.Options, id); ok {
				field.Selected = append(field.Selected, label)
			} else {
				field.Selected = append(field.Selected, strconv.Itoa(id))
			}
		}
		field.Value = strings.Join(field.Selected, ", ")
	case board.ColumnPeople:
		field.Value = joinRefs(value.People)
	case board.ColumnBoardRelation:
		field.Value = joinRefs(value.Relations)
	case board.ColumnPhone:
		field.Value = value.Phone.Number
	case board.ColumnLink:
		field.Value = value.Link.URL
		if value.Link.Text != "" {
			field.Value = value.Link.Text
		}
	case board.ColumnFile:
		var names []string
		for _, file := range value.Files.Existing {
			names = append(names, file.Name)
		}
		field.Value = strings.Join(names, ", ")
	default:
		field.Value = value.Text
	}
}

func optionLabel(options []codec.Option, id int) (string, bool) {
	for _, option := range options {
		if option.ID == id {
			return option.Label, true
		}
	}
	return "", false
}

func joinRefs(refs []codec.Ref) string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Name != "" {
			names = append(names, ref.Name)
			continue
		}
		names = append(names, ref.ID)
	}
	return strings.Join(names, ", ")
}
