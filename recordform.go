// Package recordform wires the form engine's pieces together behind a small
// root-level API: resolve a layout, decode and encode column values, run
// lookups, and submit the result.
package recordform

import (
	"context"

	"github.com/goliatone/go-recordform/internal/boardapi"
	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/codec"
	"github.com/goliatone/go-recordform/pkg/layout"
	"github.com/goliatone/go-recordform/pkg/lookup"
	"github.com/goliatone/go-recordform/pkg/submit"
)

// Client bundles every remote collaborator the engine talks to.
type Client = board.Client

// ColumnDescriptor is one typed slot in a collection's schema.
type ColumnDescriptor = board.ColumnDescriptor

// FormValue is the UI-side value of one column, tagged by column type.
type FormValue = codec.FormValue

// ValidatedSection is the renderable output of layout resolution.
type ValidatedSection = layout.ValidatedSection

// SubmitRequest describes one create or update submission.
type SubmitRequest = submit.Request

// SubmitResult reports the outcome of a submission.
type SubmitResult = submit.Result

// NewClient constructs the GraphQL-backed client using the internal
// implementation while keeping the concrete type hidden from consumers.
// Options are declared in pkg/board so callers outside this module can
// configure the endpoint and token.
func NewClient(options ...board.ClientOption) Client {
	return boardapi.New(board.NewClientOptions(options...))
}

// ResolveLayout fetches the layout documents bound to collectionID and
// validates them against the collection's live columns in one call.
func ResolveLayout(ctx context.Context, client Client, metadataCollection, collectionID string) ([]ValidatedSection, error) {
	source, err := layout.NewSource(client, metadataCollection)
	if err != nil {
		return nil, err
	}
	docs, err := source.Documents(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	columns, err := client.Columns(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return layout.Resolve(docs, columns), nil
}

// NewLookupSession exposes the lookup session constructor from the top-level
// module.
func NewLookupSession(records board.RecordSource, directory board.Directory, options ...lookup.Option) (*lookup.Session, error) {
	return lookup.NewSession(records, directory, options...)
}

// NewSubmitter builds a submission orchestrator bound to one client.
func NewSubmitter(client Client, options ...submit.Option) *submit.Orchestrator {
	base := []submit.Option{
		submit.WithColumnSource(client),
		submit.WithWriter(client),
		submit.WithFileTransport(client),
	}
	return submit.New(append(base, options...)...)
}
