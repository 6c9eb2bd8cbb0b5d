package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"message-room/domain"
)

func openTestIndex(t *testing.T) *MessageIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewMessageIndex(writer, slog.Default())
}

func seedMessages(t *testing.T, index *MessageIndex) {
	t.Helper()
	at := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	for i, message := range []domain.Message{
		{ID: 1, Username: "alice", Content: "the invoice is ready"},
		{ID: 2, Username: "bob", Content: "lunch at noon"},
		{ID: 3, Username: "alice", Content: "second invoice sent"},
	} {
		message.At = at.Add(time.Duration(i) * time.Minute)
		require.NoError(t, index.Index(message))
	}
}

func Test_Search_Matches_Message_Content(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	seedMessages(t, index)

	results, err := index.Search(context.Background(), NewQuery("invoice"))
	req.NoError(err)
	req.Len(results, 2)
	for _, result := range results {
		req.Equal("alice", result.Username)
		req.Contains(result.Content, "invoice")
		req.NotEmpty(result.At)
	}
}

func Test_Search_Filters_By_Username(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	seedMessages(t, index)

	results, err := index.Search(context.Background(), NewQuery("lunch --user bob"))
	req.NoError(err)
	req.Len(results, 1)
	req.Equal(uint64(2), results[0].ID)

	// The same terms under the wrong username match nothing
	results, err = index.Search(context.Background(), NewQuery("lunch --user alice"))
	req.NoError(err)
	req.Empty(results)
}

func Test_Search_Respects_The_Limit_Flag(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	seedMessages(t, index)

	results, err := index.Search(context.Background(), NewQuery("invoice --limit 1"))
	req.NoError(err)
	req.Len(results, 1)
}

func Test_Reindexing_The_Same_Id_Updates_In_Place(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	at := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	req.NoError(index.Index(domain.Message{ID: 7, Username: "alice", Content: "draft", At: at}))
	req.NoError(index.Index(domain.Message{ID: 7, Username: "alice", Content: "final version", At: at}))

	results, err := index.Search(context.Background(), NewQuery("version"))
	req.NoError(err)
	req.Len(results, 1)
	req.Equal(uint64(7), results[0].ID)

	results, err = index.Search(context.Background(), NewQuery("draft"))
	req.NoError(err)
	req.Empty(results)
}

func Test_NewQuery_Parses_Flags_And_Terms(t *testing.T) {
	req := require.New(t)

	query := NewQuery("coffee break --user bob --limit 25")
	req.Equal("coffee break", query.Terms)
	req.Equal("bob", query.Username)
	req.Equal(25, query.Limit)

	// Flags with garbage values fall back to defaults
	query = NewQuery("coffee --limit zero")
	req.Equal("coffee", query.Terms)
	req.Equal(defaultLimit, query.Limit)

	query = NewQuery("")
	req.Empty(query.Terms)
	req.Empty(query.Username)
}
