package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blugelabs/bluge"

	"message-room/domain"
)

// MessageIndex wraps a Bluge writer holding one document per stored message.
// Indexing is keyed by message id, so re-indexing the same message is an
// idempotent update.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Result is one search hit, timestamps already rendered in wire format.
type Result struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Content  string `json:"content"`
	At       string `json:"timestamp"`
}

func (x *MessageIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(strconv.FormatUint(message.ID, 10)).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("username", message.Username).StoreValue()).
		AddField(bluge.NewStoredOnlyField("at", []byte(message.At.Format(domain.WireTimestamp))))
	return x.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message content, optionally restricted to
// one username, and returns at most query.Limit hits.
func (x *MessageIndex) Search(ctx context.Context, query *Query) ([]Result, error) {
	reader, err := x.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			x.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	content := bluge.NewMatchQuery(query.Terms).SetField("content")
	var request bluge.SearchRequest
	if query.Username != "" {
		request = bluge.NewTopNSearch(query.Limit, bluge.NewBooleanQuery().
			AddMust(content).
			AddMust(bluge.NewTermQuery(query.Username).SetField("username")))
	} else {
		request = bluge.NewTopNSearch(query.Limit, content)
	}

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var results []Result
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate hits: %w", err)
		}
		if match == nil {
			break
		}

		var result Result
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				result.ID, _ = strconv.ParseUint(string(value), 10, 64)
			case "username":
				result.Username = string(value)
			case "content":
				result.Content = string(value)
			case "at":
				result.At = string(value)
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("load hit: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}
