package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"message-room/domain"
	"message-room/observability"
	"message-room/search"
)

func Test_Indexer_Makes_Stored_Messages_Searchable(t *testing.T) {
	req := require.New(t)
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })
	index := search.NewMessageIndex(writer, slog.Default())

	stored := make(chan domain.Message, 4)
	stats := observability.NewStatsManager(slog.Default())
	indexer := NewIndexer(slog.Default(), stored, index, stats)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = indexer.Run(ctx)
		close(done)
	}()

	// When a message flows through the feed
	stored <- domain.Message{ID: 1, Username: "alice", Content: "quarterly report", At: time.Now()}

	// Then it becomes searchable shortly after
	req.Eventually(func() bool {
		results, err := index.Search(context.Background(), search.NewQuery("quarterly"))
		return err == nil && len(results) == 1
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("indexer did not stop after cancel")
	}
}
