// Package boardapi implements the pkg/board contracts against the record
// service's GraphQL API over HTTP.
package boardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordform/pkg/board"
)

const (
	defaultEndpoint  = "https://api.monday.com/v2"
	defaultTimeout   = 30 * time.Second
	defaultPageLimit = 500
)

// Client talks GraphQL to the record service. It satisfies board.Client.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	limit    int
	log      *logrus.Logger
}

var _ board.Client = (*Client)(nil)

// New constructs a Client from public client options. Zero-valued fields use
// the service default endpoint, a 30 second timeout, and a discard logger.
func New(cfg board.ClientOptions) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		endpoint: defaultEndpoint,
		token:    cfg.Token,
		http:     &http.Client{Timeout: defaultTimeout},
		limit:    defaultPageLimit,
		log:      discard,
	}
	if strings.TrimSpace(cfg.Endpoint) != "" {
		c.endpoint = strings.TrimRight(cfg.Endpoint, "/")
	}
	if cfg.HTTPClient != nil {
		c.http = cfg.HTTPClient
	}
	if cfg.PageLimit > 0 {
		c.limit = cfg.PageLimit
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger
	}
	return c
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// do posts one GraphQL request and decodes the data payload into out. Every
// request carries a fresh request id so failures can be correlated with
// service-side logs.
func (c *Client) do(ctx context.Context, op, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("boardapi: %s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("boardapi: %s: build request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return board.ClassifyRemote(op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return board.ClassifyRemote(op, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{
			"op":         op,
			"status":     resp.StatusCode,
			"request_id": requestID,
		}).Warn("boardapi: request failed")
		return board.ClassifyRemote(op, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	var envelope graphqlEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return board.ClassifyRemote(op, fmt.Errorf("decode response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		c.log.WithFields(logrus.Fields{
			"op":         op,
			"request_id": requestID,
			"cause":      envelope.Errors[0].Message,
		}).Warn("boardapi: graphql error")
		return board.ClassifyRemote(op, errors.New(envelope.Errors[0].Message))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return board.ClassifyRemote(op, fmt.Errorf("decode data: %w", err))
	}
	return nil
}

type wireColumn struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	SettingsStr string `json:"settings_str"`
}

func (w wireColumn) descriptor() board.ColumnDescriptor {
	col := board.ColumnDescriptor{
		ID:    w.ID,
		Title: w.Title,
		Type:  board.ColumnType(w.Type),
	}
	if w.SettingsStr != "" && w.SettingsStr != "null" {
		col.Settings = json.RawMessage(w.SettingsStr)
	}
	return col
}

const columnsQuery = `query ($boardId: [ID!]) {
  boards(ids: $boardId) {
    columns { id title type settings_str }
  }
}`

// Columns implements board.ColumnSource.
func (c *Client) Columns(ctx context.Context, collectionID string) ([]board.ColumnDescriptor, error) {
	if strings.TrimSpace(collectionID) == "" {
		return nil, errors.New("boardapi: collection id is required")
	}

	var data struct {
		Boards []struct {
			Columns []wireColumn `json:"columns"`
		} `json:"boards"`
	}
	if err := c.do(ctx, "columns", columnsQuery, map[string]any{"boardId": []string{collectionID}}, &data); err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, board.ClassifyRemote("columns",
			fmt.Errorf("cannot access board %s: board doesn't exist or user lacks permissions", collectionID))
	}

	out := make([]board.ColumnDescriptor, 0, len(data.Boards[0].Columns))
	for _, col := range data.Boards[0].Columns {
		out = append(out, col.descriptor())
	}
	return out, nil
}

type wireColumnValue struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Value  string `json:"value"`
	Type   string `json:"type"`
	Column struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Type  string `json:"type"`
	} `json:"column"`
	DisplayValue string `json:"display_value"`
}

func (w wireColumnValue) value() board.ColumnValue {
	cv := board.ColumnValue{
		ID:           w.ID,
		Title:        w.Column.Title,
		Type:         board.ColumnType(w.Type),
		Text:         w.Text,
		Value:        w.Value,
		DisplayValue: w.DisplayValue,
	}
	if cv.Type == "" {
		cv.Type = board.ColumnType(w.Column.Type)
	}
	return cv
}

type wireItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Board struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"board"`
	ColumnValues []wireColumnValue `json:"column_values"`
}

func (w wireItem) item() board.Item {
	item := board.Item{
		ID:        w.ID,
		Name:      w.Name,
		BoardID:   w.Board.ID,
		BoardName: w.Board.Name,
	}
	for _, cv := range w.ColumnValues {
		item.ColumnValues = append(item.ColumnValues, cv.value())
	}
	return item
}

const listItemsQuery = `query ($boardId: [ID!], $limit: Int!) {
  boards(ids: $boardId) {
    id
    name
    items_page(limit: $limit) {
      items {
        id
        name
        column_values {
          id
          text
          value
          type
          column { id title type }
          ... on BoardRelationValue { display_value }
        }
      }
    }
  }
}`

// ListItems implements board.RecordSource: hydrated records with column
// values, used by the layout source and for update-mode prefill listings.
func (c *Client) ListItems(ctx context.Context, collectionID string, opts board.ListOptions) ([]board.Item, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = c.limit
	}

	var data struct {
		Boards []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			ItemsPage struct {
				Items []wireItem `json:"items"`
			} `json:"items_page"`
		} `json:"boards"`
	}
	err := c.do(ctx, "list items", listItemsQuery, map[string]any{
		"boardId": []string{collectionID},
		"limit":   limit,
	}, &data)
	if err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, board.ClassifyRemote("list items",
			fmt.Errorf("cannot access board %s: board doesn't exist or user lacks permissions", collectionID))
	}

	b := data.Boards[0]
	out := make([]board.Item, 0, len(b.ItemsPage.Items))
	for _, raw := range b.ItemsPage.Items {
		item := raw.item()
		item.BoardID = b.ID
		item.BoardName = b.Name
		out = append(out, item)
	}
	return out, nil
}

// ListRecords implements board.RecordSource with lightweight summaries for
// pickers. A non-empty NameFilter is applied client side against the fetched
// page: the service's contains-text rules are unreliable across column types,
// and the page is already capped.
func (c *Client) ListRecords(ctx context.Context, collectionID string, opts board.ListOptions) ([]board.RecordSummary, error) {
	items, err := c.ListItems(ctx, collectionID, board.ListOptions{Limit: opts.Limit})
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(strings.TrimSpace(opts.NameFilter))
	out := make([]board.RecordSummary, 0, len(items))
	for _, item := range items {
		if filter != "" && !strings.Contains(strings.ToLower(item.Name), filter) {
			continue
		}
		out = append(out, board.RecordSummary{
			ID:              item.ID,
			Name:            item.Name,
			OriginBoardID:   item.BoardID,
			OriginBoardName: item.BoardName,
		})
	}
	return out, nil
}

const getRecordQuery = `query ($itemId: [ID!]) {
  items(ids: $itemId) {
    id
    name
    board { id name }
    column_values {
      id
      text
      value
      type
      column { id title type }
      ... on BoardRelationValue { display_value }
    }
  }
}`

// GetRecord implements board.RecordSource.
func (c *Client) GetRecord(ctx context.Context, itemID string) (*board.Item, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, errors.New("boardapi: item id is required")
	}

	var data struct {
		Items []wireItem `json:"items"`
	}
	if err := c.do(ctx, "get record", getRecordQuery, map[string]any{"itemId": []string{itemID}}, &data); err != nil {
		return nil, err
	}
	if len(data.Items) == 0 {
		return nil, board.ClassifyRemote("get record",
			fmt.Errorf("item %s not found or user lacks access", itemID))
	}
	item := data.Items[0].item()
	return &item, nil
}

type wireUser struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	IsAdmin  bool        `json:"is_admin"`
	PhotoURL string      `json:"photo_thumb"`
}

func (w wireUser) user() board.User {
	return board.User{
		ID:       w.ID.String(),
		Name:     w.Name,
		Email:    w.Email,
		IsAdmin:  w.IsAdmin,
		PhotoURL: w.PhotoURL,
	}
}

const listUsersQuery = `query {
  users { id name email is_admin photo_thumb }
}`

// ListUsers implements board.Directory.
func (c *Client) ListUsers(ctx context.Context) ([]board.User, error) {
	var data struct {
		Users []wireUser `json:"users"`
	}
	if err := c.do(ctx, "list users", listUsersQuery, nil, &data); err != nil {
		return nil, err
	}
	out := make([]board.User, 0, len(data.Users))
	for _, user := range data.Users {
		out = append(out, user.user())
	}
	return out, nil
}

// SearchUsers implements board.Directory. The directory endpoint has no
// server-side search, so the full listing is filtered locally.
func (c *Client) SearchUsers(ctx context.Context, term string) ([]board.User, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return users, nil
	}
	out := make([]board.User, 0, len(users))
	for _, user := range users {
		if strings.Contains(strings.ToLower(user.Name), needle) ||
			strings.Contains(strings.ToLower(user.Email), needle) {
			out = append(out, user)
		}
	}
	return out, nil
}

const createRecordMutation = `mutation ($boardId: ID!, $name: String!, $values: JSON) {
  create_item(board_id: $boardId, item_name: $name, column_values: $values) {
    id
    name
  }
}`

// CreateRecord implements board.Writer.
func (c *Client) CreateRecord(ctx context.Context, collectionID, name string, values map[string]any) (*board.RecordSummary, error) {
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("boardapi: create record: marshal values: %w", err)
	}

	var data struct {
		CreateItem struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"create_item"`
	}
	err = c.do(ctx, "create record", createRecordMutation, map[string]any{
		"boardId": collectionID,
		"name":    name,
		"values":  string(encoded),
	}, &data)
	if err != nil {
		return nil, err
	}
	return &board.RecordSummary{ID: data.CreateItem.ID, Name: data.CreateItem.Name, OriginBoardID: collectionID}, nil
}

const updateRecordMutation = `mutation ($boardId: ID!, $itemId: ID!, $values: JSON!) {
  change_multiple_column_values(board_id: $boardId, item_id: $itemId, column_values: $values) {
    id
    name
  }
}`

// UpdateRecord implements board.Writer: one call overwriting every column
// present in values and leaving the rest untouched.
func (c *Client) UpdateRecord(ctx context.Context, collectionID, itemID string, values map[string]any) (*board.RecordSummary, error) {
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("boardapi: update record: marshal values: %w", err)
	}

	var data struct {
		Changed struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"change_multiple_column_values"`
	}
	err = c.do(ctx, "update record", updateRecordMutation, map[string]any{
		"boardId": collectionID,
		"itemId":  itemID,
		"values":  string(encoded),
	}, &data)
	if err != nil {
		return nil, err
	}
	return &board.RecordSummary{ID: data.Changed.ID, Name: data.Changed.Name, OriginBoardID: collectionID}, nil
}

const uploadMutation = `mutation ($file: File!, $itemId: ID!, $columnId: String!) {
  add_file_to_column(item_id: $itemId, column_id: $columnId, file: $file) { id }
}`

// UploadFile implements board.FileTransport via the multipart file endpoint.
func (c *Client) UploadFile(ctx context.Context, itemID, columnID string, file board.FileHandle) (string, error) {
	if file.Reader == nil {
		return "", errors.New("boardapi: file reader is required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("query", uploadMutation); err != nil {
		return "", fmt.Errorf("boardapi: upload file: %w", err)
	}
	variables, err := json.Marshal(map[string]any{"itemId": itemID, "columnId": columnID, "file": nil})
	if err != nil {
		return "", fmt.Errorf("boardapi: upload file: %w", err)
	}
	if err := writer.WriteField("variables", string(variables)); err != nil {
		return "", fmt.Errorf("boardapi: upload file: %w", err)
	}
	if err := writer.WriteField("map", `{"file":["variables.file"]}`); err != nil {
		return "", fmt.Errorf("boardapi: upload file: %w", err)
	}
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return "", fmt.Errorf("boardapi: upload file: %w", err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return "", fmt.Errorf("boardapi: upload file: read %s: %w", file.Name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("boardapi: upload file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/file", &buf)
	if err != nil {
		return "", fmt.Errorf("boardapi: upload file: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", c.token)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", board.ClassifyRemote("upload file", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", board.ClassifyRemote("upload file", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", board.ClassifyRemote("upload file",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	var envelope struct {
		Data struct {
			AddFile struct {
				ID string `json:"id"`
			} `json:"add_file_to_column"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return "", board.ClassifyRemote("upload file", fmt.Errorf("decode response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		return "", board.ClassifyRemote("upload file", errors.New(envelope.Errors[0].Message))
	}
	return envelope.Data.AddFile.ID, nil
}
