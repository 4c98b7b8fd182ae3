package boardapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-recordform/pkg/board"
)

type capturedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(board.NewClientOptions(
		board.WithEndpoint(server.URL),
		board.WithToken("secret-token"),
	))
}

func TestColumnsParsesSettings(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "secret-token" {
			t.Errorf("Authorization = %q, want %q", auth, "secret-token")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected an X-Request-ID header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		io.WriteString(w, `{"data":{"boards":[{"columns":[
			{"id":"c_status","title":"Status","type":"status","settings_str":"{\"labels\":{\"0\":\"Open\"}}"},
			{"id":"c_text","title":"Notes","type":"text","settings_str":"null"}
		]}]}}`)
	})

	columns, err := client.Columns(context.Background(), "board-7")
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}

	want := []board.ColumnDescriptor{
		{ID: "c_status", Title: "Status", Type: board.ColumnStatus, Settings: json.RawMessage(`{"labels":{"0":"Open"}}`)},
		{ID: "c_text", Title: "Notes", Type: board.ColumnText},
	}
	if diff := cmp.Diff(want, columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(got.Query, "settings_str") {
		t.Errorf("query missing settings_str selection:\n%s", got.Query)
	}
}

func TestColumnsMissingBoardIsPermissionDenied(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"boards":[]}}`)
	})

	_, err := client.Columns(context.Background(), "board-gone")
	if err == nil {
		t.Fatal("expected an error for an inaccessible board")
	}
	if !board.IsPermissionDenied(err) {
		t.Errorf("IsPermissionDenied(%v) = false, want true", err)
	}
}

func TestGraphQLErrorsAreClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"errors":[{"message":"User unauthorized to perform action"}]}`)
	})

	_, err := client.ListUsers(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !board.IsPermissionDenied(err) {
		t.Errorf("IsPermissionDenied(%v) = false, want true", err)
	}
}

func TestCreateRecordEncodesValuesAsJSONString(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		io.WriteString(w, `{"data":{"create_item":{"id":"42","name":"Ticket"}}}`)
	})

	summary, err := client.CreateRecord(context.Background(), "board-7", "Ticket", map[string]any{
		"c_status": map[string]any{"index": 2},
	})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if summary.ID != "42" || summary.Name != "Ticket" || summary.OriginBoardID != "board-7" {
		t.Errorf("summary = %+v", summary)
	}

	raw, ok := got.Variables["values"].(string)
	if !ok {
		t.Fatalf("values variable is %T, want a JSON string", got.Variables["values"])
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("values is not valid JSON: %v", err)
	}
	want := map[string]any{"c_status": map[string]any{"index": float64(2)}}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestListRecordsFiltersByName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"boards":[{"id":"board-7","name":"Tickets","items_page":{"items":[
			{"id":"1","name":"Alpha"},
			{"id":"2","name":"Beta"},
			{"id":"3","name":"alphabet"}
		]}}]}}`)
	})

	records, err := client.ListRecords(context.Background(), "board-7", board.ListOptions{NameFilter: "alp"})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}

	want := []board.RecordSummary{
		{ID: "1", Name: "Alpha", OriginBoardID: "board-7", OriginBoardName: "Tickets"},
		{ID: "3", Name: "alphabet", OriginBoardID: "board-7", OriginBoardName: "Tickets"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRecordHydratesColumnValues(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"items":[{
			"id":"9","name":"Widget","board":{"id":"board-7","name":"Tickets"},
			"column_values":[
				{"id":"c_rel","text":"","value":"{\"item_ids\":[4]}","type":"board_relation",
				 "column":{"id":"c_rel","title":"Linked","type":"board_relation"},
				 "display_value":"Other"}
			]
		}]}}`)
	})

	item, err := client.GetRecord(context.Background(), "9")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}

	want := &board.Item{
		ID: "9", Name: "Widget", BoardID: "board-7", BoardName: "Tickets",
		ColumnValues: []board.ColumnValue{{
			ID:           "c_rel",
			Title:        "Linked",
			Type:         board.ColumnBoardRelation,
			Value:        `{"item_ids":[4]}`,
			DisplayValue: "Other",
		}},
	}
	if diff := cmp.Diff(want, item); diff != "" {
		t.Errorf("item mismatch (-want +got):\n%s", diff)
	}
}

func TestUploadFileSendsMultipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/file") {
			t.Errorf("path = %q, want /file suffix", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if q := r.FormValue("query"); !strings.Contains(q, "add_file_to_column") {
			t.Errorf("query = %q", q)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "report.pdf" {
			t.Errorf("filename = %q, want report.pdf", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if string(body) != "pdf-bytes" {
			t.Errorf("file body = %q", body)
		}
		io.WriteString(w, `{"data":{"add_file_to_column":{"id":"asset-1"}}}`)
	})

	assetID, err := client.UploadFile(context.Background(), "9", "c_file", board.FileHandle{
		Name:   "report.pdf",
		Reader: strings.NewReader("pdf-bytes"),
	})
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if assetID != "asset-1" {
		t.Errorf("asset id = %q, want asset-1", assetID)
	}
}
