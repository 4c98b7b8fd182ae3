package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordform/internal/boardapi"
	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/codec"
	"github.com/goliatone/go-recordform/pkg/layout"
	"github.com/goliatone/go-recordform/pkg/lookup"
	"github.com/goliatone/go-recordform/pkg/submit"
)

const skipOption = "(leave empty)"

// promptForm walks every fully valid section and asks for each field in
// order. Empty answers are omitted from the value map so the submitter treats
// them as unset.
func promptForm(ctx context.Context, log *logrus.Logger, client *boardapi.Client, sections []layout.ValidatedSection, columns []board.ColumnDescriptor, prefill map[string]codec.FormValue, prefillName string) (map[string]codec.FormValue, error) {
	byID := make(map[string]board.ColumnDescriptor, len(columns))
	for _, col := range columns {
		byID[col.ID] = col
	}

	session, err := lookup.NewSession(client, client, lookup.WithLogger(log))
	if err != nil {
		return nil, err
	}
	defer session.CloseAll()

	values := make(map[string]codec.FormValue)

	var name string
	if err := survey.AskOne(&survey.Input{
		Message: "Record name:",
		Default: prefillName,
	}, &name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		values[submit.NameFieldKey] = codec.Text(board.ColumnName, name)
	}

	for _, section := range layout.FullyValidSections(sections) {
		fmt.Printf("\n== %s ==\n", section.Definition.Title)
		for _, field := range section.Fields {
			if field.Type.ReadOnly() {
				continue
			}
			value, ok, err := promptField(ctx, session, field, byID[field.ColumnID], prefill[field.ColumnID])
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Label, err)
			}
			if ok {
				values[field.ColumnID] = value
			}
		}
	}
	return values, nil
}

func promptField(ctx context.Context, session *lookup.Session, field layout.ValidatedField, col board.ColumnDescriptor, prefill codec.FormValue) (codec.FormValue, bool, error) {
	label := field.Label
	if field.Required {
		label += " *"
	}

	switch field.Type {
	case board.ColumnLongText:
		var text string
		prompt := &survey.Multiline{Message: label + ":", Default: prefill.Text}
		if err := survey.AskOne(prompt, &text); err != nil {
			return codec.FormValue{}, false, err
		}
		return textValue(field.Type, text)

	case board.ColumnCheckbox:
		checked := prefill.Checked
		if err := survey.AskOne(&survey.Confirm{Message: label + "?", Default: checked}, &checked); err != nil {
			return codec.FormValue{}, false, err
		}
		return codec.FormValue{Type: field.Type, Checked: checked}, true, nil

	case board.ColumnStatus:
		return promptStatus(label, col, prefill)

	case board.ColumnDropdown:
		return promptDropdown(label, col, prefill)

	case board.ColumnPeople:
		refs, err := promptLookup(ctx, session, lookup.Key(field.ColumnID), lookup.FieldConfig{
			Kind:        lookup.KindUsers,
			MultiSelect: true,
		}, label, prefill.People)
		if err != nil {
			return codec.FormValue{}, false, err
		}
		return codec.FormValue{Type: field.Type, People: refs}, len(refs) > 0, nil

	case board.ColumnBoardRelation:
		targets := codec.LinkedBoardIDs(col)
		if len(targets) == 0 {
			return codec.FormValue{}, false, nil
		}
		refs, err := promptLookup(ctx, session, lookup.Key(field.ColumnID), lookup.FieldConfig{
			Kind:        lookup.KindRecords,
			Targets:     targets,
			MultiSelect: true,
		}, label, prefill.Relations)
		if err != nil {
			return codec.FormValue{}, false, err
		}
		return codec.FormValue{Type: field.Type, Relations: refs}, len(refs) > 0, nil

	case board.ColumnPhone:
		var number string
		if err := survey.AskOne(&survey.Input{Message: label + ":", Default: prefill.Phone.Number}, &number); err != nil {
			return codec.FormValue{}, false, err
		}
		if strings.TrimSpace(number) == "" {
			return codec.FormValue{}, false, nil
		}
		return codec.FormValue{Type: field.Type, Phone: codec.Phone{Number: number}}, true, nil

	case board.ColumnLink:
		var url string
		if err := survey.AskOne(&survey.Input{Message: label + " (URL):", Default: prefill.Link.URL}, &url); err != nil {
			return codec.FormValue{}, false, err
		}
		if strings.TrimSpace(url) == "" {
			return codec.FormValue{}, false, nil
		}
		return codec.FormValue{Type: field.Type, Link: codec.Link{URL: url}}, true, nil

	case board.ColumnFile:
		return promptFiles(label)

	default:
		var text string
		message := label + ":"
		if field.Type == board.ColumnDate {
			message = label + " (YYYY-MM-DD):"
		}
		if err := survey.AskOne(&survey.Input{Message: message, Default: prefill.Text}, &text); err != nil {
			return codec.FormValue{}, false, err
		}
		return textValue(field.Type, text)
	}
}

func textValue(t board.ColumnType, text string) (codec.FormValue, bool, error) {
	if strings.TrimSpace(text) == "" {
		return codec.FormValue{}, false, nil
	}
	return codec.Text(t, text), true, nil
}

func promptStatus(label string, col board.ColumnDescriptor, prefill codec.FormValue) (codec.FormValue, bool, error) {
	options := codec.Options(col)
	if len(options) == 0 {
		return codec.FormValue{}, false, nil
	}

	labels := []string{skipOption}
	defaultLabel := skipOption
	for _, option := range options {
		labels = append(labels, option.Label)
		if prefill.Text == strconv.Itoa(option.ID) {
			defaultLabel = option.Label
		}
	}

	var chosen string
	prompt := &survey.Select{Message: label + ":", Options: labels, Default: defaultLabel}
	if err := survey.AskOne(prompt, &chosen); err != nil {
		return codec.FormValue{}, false, err
	}
	if chosen == skipOption {
		return codec.FormValue{}, false, nil
	}
	for _, option := range options {
		if option.Label == chosen {
			return codec.Text(board.ColumnStatus, strconv.Itoa(option.ID)), true, nil
		}
	}
	return codec.FormValue{}, false, nil
}

func promptDropdown(label string, col board.ColumnDescriptor, prefill codec.FormValue) (codec.FormValue, bool, error) {
	options := codec.Options(col)
	if len(options) == 0 {
		return codec.FormValue{}, false, nil
	}

	labels := make([]string, 0, len(options))
	var defaults []string
	for _, option := range options {
		labels = append(labels, option.Label)
		for _, id := range prefill.OptionIDs {
			if id == option.ID {
				defaults = append(defaults, option.Label)
			}
		}
	}

	var chosen []string
	prompt := &survey.MultiSelect{Message: label + ":", Options: labels, Default: defaults}
	if err := survey.AskOne(prompt, &chosen); err != nil {
		return codec.FormValue{}, false, err
	}
	if len(chosen) == 0 {
		return codec.FormValue{}, false, nil
	}

	var ids []int
	for _, pick := range chosen {
		for _, option := range options {
			if option.Label == pick {
				ids = append(ids, option.ID)
			}
		}
	}
	return codec.FormValue{Type: board.ColumnDropdown, OptionIDs: ids}, true, nil
}

// promptLookup opens a lookup, waits for the candidate load to land, and
// presents the result as a multi-select.
func promptLookup(ctx context.Context, session *lookup.Session, key lookup.Key, cfg lookup.FieldConfig, label string, preselected []codec.Ref) ([]codec.Ref, error) {
	session.Open(ctx, key, cfg)
	state, err := waitLoaded(ctx, session, key)
	if err != nil {
		return nil, err
	}
	if state.Error != "" {
		fmt.Printf("warning: %s\n", state.Error)
	}
	if len(state.Candidates) == 0 {
		return nil, nil
	}

	labels := make([]string, 0, len(state.Candidates))
	byLabel := make(map[string]board.RecordSummary, len(state.Candidates))
	var defaults []string
	for _, candidate := range state.Candidates {
		display := candidate.Name
		if candidate.OriginBoardName != "" {
			display = fmt.Sprintf("%s (%s)", candidate.Name, candidate.OriginBoardName)
		}
		labels = append(labels, display)
		byLabel[display] = candidate
		for _, ref := range preselected {
			if ref.ID == candidate.ID {
				defaults = append(defaults, display)
			}
		}
	}

	var chosen []string
	prompt := &survey.MultiSelect{Message: label + ":", Options: labels, Default: defaults}
	if err := survey.AskOne(prompt, &chosen); err != nil {
		return nil, err
	}

	refs := make([]codec.Ref, 0, len(chosen))
	for _, pick := range chosen {
		candidate := byLabel[pick]
		session.Toggle(key, candidate)
		refs = append(refs, codec.Ref{ID: candidate.ID, Name: candidate.Name})
	}
	session.Close(key)
	return refs, nil
}

func waitLoaded(ctx context.Context, session *lookup.Session, key lookup.Key) (lookup.State, error) {
	deadline := time.Now().Add(30 * time.Second)
	for {
		state := session.StateOf(key)
		if state.Phase == lookup.PhaseLoaded {
			return state, nil
		}
		if time.Now().After(deadline) {
			return lookup.State{}, fmt.Errorf("timed out loading candidates for %s", key)
		}
		select {
		case <-ctx.Done():
			return lookup.State{}, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func promptFiles(label string) (codec.FormValue, bool, error) {
	var raw string
	prompt := &survey.Input{Message: label + " (file paths, comma separated):"}
	if err := survey.AskOne(prompt, &raw); err != nil {
		return codec.FormValue{}, false, err
	}
	if strings.TrimSpace(raw) == "" {
		return codec.FormValue{}, false, nil
	}

	var staged []board.FileHandle
	for _, path := range strings.Split(raw, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		file, err := os.Open(path)
		if err != nil {
			return codec.FormValue{}, false, fmt.Errorf("open %s: %w", path, err)
		}
		staged = append(staged, board.FileHandle{Name: filepath.Base(path), Reader: file})
	}
	if len(staged) == 0 {
		return codec.FormValue{}, false, nil
	}
	return codec.FormValue{Type: board.ColumnFile, Files: codec.FileSet{Staged: staged}}, true, nil
}
