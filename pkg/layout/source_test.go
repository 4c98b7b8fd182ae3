package layout_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/layout"
)

type stubRecordSource struct {
	items []board.Item
	err   error
}

func (s *stubRecordSource) ListRecords(context.Context, string, board.ListOptions) ([]board.RecordSummary, error) {
	return nil, nil
}

func (s *stubRecordSource) ListItems(context.Context, string, board.ListOptions) ([]board.Item, error) {
	return s.items, s.err
}

func (s *stubRecordSource) GetRecord(context.Context, string) (*board.Item, error) {
	return nil, nil
}

func metadataItem(id, boardID, order, payload string) board.Item {
	return board.Item{
		ID:   id,
		Name: "section " + id,
		ColumnValues: []board.ColumnValue{
			{ID: "board_id", Title: "Board ID", Type: board.ColumnText, Text: boardID},
			{ID: "order", Title: "Section Order", Type: board.ColumnNumbers, Text: order},
			{ID: "layout", Title: "Layout", Type: board.ColumnLongText, Text: payload},
		},
	}
}

func TestDocumentsFiltersAndOrders(t *testing.T) {
	source, err := layout.NewSource(&stubRecordSource{items: []board.Item{
		metadataItem("m1", "777", "2", `{"id":"s2"}`),
		metadataItem("m2", "888", "1", `{"id":"other"}`),
		metadataItem("m3", "777", "1", `{"id":"s1"}`),
	}}, "meta-board")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	docs, err := source.Documents(context.Background(), "777")
	if err != nil {
		t.Fatalf("documents: %v", err)
	}

	want := []layout.RawLayoutDoc{
		{ID: "m3", Name: "section m3", Payload: `{"id":"s1"}`, BoundCollectionID: "777", Order: 1},
		{ID: "m1", Name: "section m1", Payload: `{"id":"s2"}`, BoundCollectionID: "777", Order: 2},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentsFallsBackToFirstLongText(t *testing.T) {
	item := board.Item{
		ID: "m1",
		ColumnValues: []board.ColumnValue{
			{ID: "board_id", Title: "Board ID", Type: board.ColumnText, Text: "777"},
			{ID: "body", Title: "Definition", Type: board.ColumnLongText, Text: `{"id":"s1"}`},
		},
	}

	source, err := layout.NewSource(&stubRecordSource{items: []board.Item{item}}, "meta-board")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	docs, err := source.Documents(context.Background(), "777")
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if len(docs) != 1 || docs[0].Payload != `{"id":"s1"}` {
		t.Fatalf("expected long_text fallback payload, got %+v", docs)
	}
}

func TestDocumentsSkipsRecordsWithoutPayload(t *testing.T) {
	item := board.Item{
		ID: "m1",
		ColumnValues: []board.ColumnValue{
			{ID: "board_id", Title: "Board ID", Type: board.ColumnText, Text: "777"},
		},
	}

	source, err := layout.NewSource(&stubRecordSource{items: []board.Item{item}}, "meta-board")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	docs, err := source.Documents(context.Background(), "777")
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected payload-less record to be skipped, got %+v", docs)
	}
}
