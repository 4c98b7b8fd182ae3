package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/codec"
	"github.com/goliatone/go-recordform/pkg/layout"
)

// Mode selects between creating a new record and overwriting column values on
// an existing one.
type Mode int

const (
	Create Mode = iota
	Update
)

const (
	// NameFieldKey is the reserved pseudo-field carrying the record's display
	// name on create.
	NameFieldKey = "name"

	defaultItemName = "New Item"
	dateFormat      = "2006-01-02"
)

// Request describes one submission.
type Request struct {
	Mode         Mode
	CollectionID string

	// TargetItemID names the record to overwrite; required for Update.
	TargetItemID string

	// Values maps column id to the UI value the user entered.
	Values map[string]codec.FormValue

	// Schema is the resolved section tree; only fields of fully valid
	// sections participate in validation and payload construction.
	Schema []layout.ValidatedSection
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithColumnSource injects the live column metadata store used for the
// encode-time re-check.
func WithColumnSource(columns board.ColumnSource) Option {
	return func(o *Orchestrator) { o.columns = columns }
}

// WithWriter injects the record write API.
func WithWriter(writer board.Writer) Option {
	return func(o *Orchestrator) { o.writer = writer }
}

// WithFileTransport injects the upload primitive for phase three.
func WithFileTransport(files board.FileTransport) Option {
	return func(o *Orchestrator) { o.files = files }
}

// WithLogger injects a logger; defaults to discard.
func WithLogger(log *logrus.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithDefaultItemName overrides the display name used when a create request
// omits the name pseudo-field.
func WithDefaultItemName(name string) Option {
	return func(o *Orchestrator) {
		if strings.TrimSpace(name) != "" {
			o.defaultName = name
		}
	}
}

// Orchestrator validates a filled form against its resolved schema and
// commits it in three phases: collect-all validation, a single record write,
// then best-effort sequential file uploads.
type Orchestrator struct {
	columns board.ColumnSource
	writer  board.Writer
	files   board.FileTransport

	defaultName string
	log         *logrus.Logger
}

// New constructs an Orchestrator from the provided options.
func New(options ...Option) *Orchestrator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	o := &Orchestrator{
		defaultName: defaultItemName,
		log:         discard,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o
}

// Submit runs the three submission phases. Validation failures come back in
// the Result with a nil error and no write issued; a failed record write
// aborts before any upload and returns the cause. Upload failures never fail
// the submission: they are counted and listed so the user can retry the file
// step. Submission is at-least-once; entered values are the caller's to keep
// for retry.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("submit: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if o.writer == nil {
		return Result{}, errors.New("submit: writer is required")
	}
	if o.columns == nil {
		return Result{}, errors.New("submit: column source is required")
	}
	if req.CollectionID == "" {
		return Result{}, errors.New("submit: collection id is required")
	}
	if req.Mode == Update && req.TargetItemID == "" {
		return Result{}, errors.New("submit: update requires a target item id")
	}

	// Phase 1: validate every field of every fully valid section, collecting
	// all failures before any write happens.
	if issues := validate(req); len(issues) > 0 {
		return Result{ValidationErrors: issues}, nil
	}

	// Phase 2: re-fetch live columns and build the write payload. A column
	// that vanished since resolution is skipped, not fatal; the schema check
	// in phase 1 ran against a snapshot and this is the race it loses.
	live, err := o.columns.Columns(ctx, req.CollectionID)
	if err != nil {
		return Result{}, fmt.Errorf("submit: fetch live columns: %w", err)
	}
	liveByID := make(map[string]board.ColumnDescriptor, len(live))
	for _, col := range live {
		liveByID[col.ID] = col
	}

	payload := make(map[string]any)
	for _, field := range submittableFields(req.Schema) {
		if field.Type == board.ColumnFile {
			continue
		}
		value, ok := req.Values[field.ColumnID]
		if !ok {
			continue
		}
		col, ok := liveByID[field.ColumnID]
		if !ok {
			o.log.WithField("column", field.ColumnID).Warn("submit: column vanished before encode, skipping")
			continue
		}
		encoded, err := codec.Encode(value, col)
		if err != nil {
			o.log.WithField("column", field.ColumnID).WithError(err).Warn("submit: encode failed, skipping column")
			continue
		}
		if encoded == nil {
			continue
		}
		payload[field.ColumnID] = encoded
	}

	summary, err := o.write(ctx, req, payload)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Success:  true,
		ItemID:   summary.ID,
		ItemName: summary.Name,
	}

	// Phase 3: sequential, best-effort uploads against the written record.
	o.uploadFiles(ctx, req, summary.ID, &result)
	return result, nil
}

func (o *Orchestrator) write(ctx context.Context, req Request, payload map[string]any) (*board.RecordSummary, error) {
	switch req.Mode {
	case Update:
		summary, err := o.writer.UpdateRecord(ctx, req.CollectionID, req.TargetItemID, payload)
		if err != nil {
			return nil, fmt.Errorf("submit: update record: %w", err)
		}
		return summary, nil
	default:
		name := o.defaultName
		if v, ok := req.Values[NameFieldKey]; ok && strings.TrimSpace(v.Text) != "" {
			name = v.Text
		}
		summary, err := o.writer.CreateRecord(ctx, req.CollectionID, name, payload)
		if err != nil {
			return nil, fmt.Errorf("submit: create record: %w", err)
		}
		return summary, nil
	}
}

// uploadFiles issues one upload per staged file, strictly sequentially per
// field and across fields, so partial-failure accounting has a deterministic
// order. A nil transport simply records every staged file as failed.
func (o *Orchestrator) uploadFiles(ctx context.Context, req Request, itemID string, result *Result) {
	for _, field := range submittableFields(req.Schema) {
		if field.Type != board.ColumnFile {
			continue
		}
		value, ok := req.Values[field.ColumnID]
		if !ok {
			continue
		}
		for _, staged := range value.Files.Staged {
			if o.files == nil {
				result.FileFailures = append(result.FileFailures, FileFailure{
					ColumnID: field.ColumnID,
					FileName: staged.Name,
					Cause:    "file transport is not configured",
				})
				continue
			}
			if _, err := o.files.UploadFile(ctx, itemID, field.ColumnID, staged); err != nil {
				o.log.WithFields(logrus.Fields{
					"column": field.ColumnID,
					"file":   staged.Name,
				}).WithError(err).Warn("submit: file upload failed")
				result.FileFailures = append(result.FileFailures, FileFailure{
					ColumnID: field.ColumnID,
					FileName: staged.Name,
					Cause:    err.Error(),
				})
				continue
			}
			result.FilesUploaded++
		}
	}
}

func submittableFields(schema []layout.ValidatedSection) []layout.ValidatedField {
	var out []layout.ValidatedField
	for _, section := range schema {
		if !section.FullyValid {
			continue
		}
		out = append(out, section.Fields...)
	}
	return out
}

func validate(req Request) []ValidationError {
	var issues []ValidationError
	for _, field := range submittableFields(req.Schema) {
		value, present := req.Values[field.ColumnID]

		if field.Required && (!present || value.IsEmpty()) {
			issues = append(issues, ValidationError{
				ColumnID: field.ColumnID,
				Label:    field.Label,
				Kind:     RequiredFieldMissing,
				Message:  fmt.Sprintf("%s is required", labelOr(field.Label, field.ColumnID)),
			})
			continue
		}
		if !present || value.IsEmpty() {
			continue
		}

		switch field.Type {
		case board.ColumnNumbers:
			if _, err := strconv.ParseFloat(strings.TrimSpace(value.Text), 64); err != nil {
				issues = append(issues, ValidationError{
					ColumnID: field.ColumnID,
					Label:    field.Label,
					Kind:     TypeMismatch,
					Message:  fmt.Sprintf("%s must be numeric", labelOr(field.Label, field.ColumnID)),
				})
			}
		case board.ColumnDate:
			if _, err := time.Parse(dateFormat, strings.TrimSpace(value.Text)); err != nil {
				issues = append(issues, ValidationError{
					ColumnID: field.ColumnID,
					Label:    field.Label,
					Kind:     TypeMismatch,
					Message:  fmt.Sprintf("%s must be an ISO date", labelOr(field.Label, field.ColumnID)),
				})
			}
		}
	}
	return issues
}

func labelOr(label, fallback string) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	return fallback
}
