package board

import (
	"context"
	"io"
)

// ListOptions bounds record listings. A zero Limit lets the implementation
// pick its own page size; NameFilter asks the service to match record names.
type ListOptions struct {
	Limit      int
	NameFilter string
}

// ColumnSource exposes a collection's column schema. Implementations return
// an immutable snapshot; callers re-fetch when they need fresher metadata.
type ColumnSource interface {
	Columns(ctx context.Context, collectionID string) ([]ColumnDescriptor, error)
}

// RecordSource fetches records. ListRecords returns lightweight summaries for
// pickers, ListItems hydrated records including column values, and GetRecord
// a single record by id.
type RecordSource interface {
	ListRecords(ctx context.Context, collectionID string, opts ListOptions) ([]RecordSummary, error)
	ListItems(ctx context.Context, collectionID string, opts ListOptions) ([]Item, error)
	GetRecord(ctx context.Context, itemID string) (*Item, error)
}

// Directory resolves human-facing names for people fields.
type Directory interface {
	ListUsers(ctx context.Context) ([]User, error)
	SearchUsers(ctx context.Context, term string) ([]User, error)
}

// Writer commits column values. Values maps column id to the wire payload the
// codec produced; columns absent from the map are left untouched by the
// service on update.
type Writer interface {
	CreateRecord(ctx context.Context, collectionID, name string, values map[string]any) (*RecordSummary, error)
	UpdateRecord(ctx context.Context, collectionID, itemID string, values map[string]any) (*RecordSummary, error)
}

// FileHandle is one staged upload. Reader is consumed exactly once.
type FileHandle struct {
	Name   string
	Reader io.Reader
}

// FileTransport uploads a file into a file column of an existing record,
// returning the asset id assigned by the service.
type FileTransport interface {
	UploadFile(ctx context.Context, itemID, columnID string, file FileHandle) (string, error)
}

// Client bundles every collaborator the form engine talks to.
type Client interface {
	ColumnSource
	RecordSource
	Directory
	Writer
	FileTransport
}
