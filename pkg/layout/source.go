package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordform/pkg/board"
)

const (
	boundCollectionTitle = "board id"
	sectionOrderTitle    = "section order"
	layoutPayloadTitle   = "layout"

	defaultPageLimit = 500
)

// SourceOption configures a layout Source.
type SourceOption func(*Source)

// WithPageLimit caps how many layout records are fetched per resolution.
func WithPageLimit(limit int) SourceOption {
	return func(s *Source) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithLogger injects a logger; the default discards everything so library
// callers stay quiet.
func WithLogger(log *logrus.Logger) SourceOption {
	return func(s *Source) {
		if log != nil {
			s.log = log
		}
	}
}

// Source fetches raw layout documents from the layout metadata collection.
// Each metadata record embeds one JSON-encoded section definition plus a
// bound collection id used to select which documents apply to the collection
// currently being edited, and an optional numeric section order.
type Source struct {
	records            board.RecordSource
	metadataCollection string
	limit              int
	log                *logrus.Logger
}

// NewSource builds a Source reading from the given metadata collection.
func NewSource(records board.RecordSource, metadataCollection string, options ...SourceOption) (*Source, error) {
	if records == nil {
		return nil, errors.New("layout: record source is required")
	}
	if strings.TrimSpace(metadataCollection) == "" {
		return nil, errors.New("layout: metadata collection id is required")
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Source{
		records:            records,
		metadataCollection: metadataCollection,
		limit:              defaultPageLimit,
		log:                discard,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Documents returns the layout documents bound to collectionID, ordered by
// their declared section order. Filtering happens client side: the metadata
// collection is small and the binding column is matched by title, the same
// convention the layout authoring side uses.
func (s *Source) Documents(ctx context.Context, collectionID string) ([]RawLayoutDoc, error) {
	if strings.TrimSpace(collectionID) == "" {
		return nil, errors.New("layout: collection id is required")
	}

	items, err := s.records.ListItems(ctx, s.metadataCollection, board.ListOptions{Limit: s.limit})
	if err != nil {
		return nil, fmt.Errorf("layout: fetch layout records: %w", err)
	}

	docs := make([]RawLayoutDoc, 0, len(items))
	for _, item := range items {
		doc := documentFromItem(item)
		if doc.BoundCollectionID != strings.TrimSpace(collectionID) {
			continue
		}
		if doc.Payload == "" {
			s.log.WithFields(logrus.Fields{
				"record": item.ID,
				"name":   item.Name,
			}).Warn("layout record has no payload column")
			continue
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Order < docs[j].Order })

	s.log.WithFields(logrus.Fields{
		"collection": collectionID,
		"documents":  len(docs),
	}).Debug("layout documents resolved")
	return docs, nil
}

func documentFromItem(item board.Item) RawLayoutDoc {
	doc := RawLayoutDoc{ID: item.ID, Name: item.Name}

	var firstLongText string
	for _, cv := range item.ColumnValues {
		switch strings.ToLower(strings.TrimSpace(cv.Title)) {
		case boundCollectionTitle:
			doc.BoundCollectionID = strings.TrimSpace(channelText(cv))
		case sectionOrderTitle:
			if order, err := strconv.ParseFloat(strings.TrimSpace(channelText(cv)), 64); err == nil {
				doc.Order = order
			}
		case layoutPayloadTitle:
			doc.Payload = channelText(cv)
		default:
			if cv.Type == board.ColumnLongText && firstLongText == "" {
				firstLongText = channelText(cv)
			}
		}
	}
	// No column titled "layout": fall back to the first long_text column.
	if doc.Payload == "" {
		doc.Payload = firstLongText
	}
	return doc
}

func channelText(cv board.ColumnValue) string {
	if cv.Text != "" {
		return cv.Text
	}
	return cv.Value
}
