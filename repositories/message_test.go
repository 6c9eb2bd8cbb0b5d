package repositories

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	apperrors "message-room/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Store_And_Fetch_Messages(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	req.NoError(err)

	// When three messages are appended
	contents := []string{"hello", "world", "bye"}
	for _, content := range contents {
		_, err := repository.StoreMessage(content, "Alice")
		req.NoError(err)
	}

	// Then they come back in append order with monotonic ids
	messages, err := repository.GetMessages()
	req.NoError(err)
	req.Len(messages, len(contents))
	for i, message := range messages {
		req.Equal(uint64(i+1), message.ID)
		req.Equal(contents[i], message.Content)
		req.Equal("Alice", message.Username)
		req.False(message.At.IsZero())
	}
}

func Test_Store_Message_Rejects_Empty_Input(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	req.NoError(err)

	_, err = repository.StoreMessage("", "Alice")
	req.ErrorIs(err, apperrors.ErrEmptyContent)
	req.ErrorIs(err, apperrors.ErrValidation)

	_, err = repository.StoreMessage("hello", "")
	req.ErrorIs(err, apperrors.ErrEmptyUsername)

	// And nothing was persisted
	messages, err := repository.GetMessages()
	req.NoError(err)
	req.Empty(messages)
}

func Test_Fetch_Keeps_Most_Recent_When_Limited(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository, err := NewMessageRepository(openTestDB(t), slog.Default(), &limit)
	req.NoError(err)

	for i := 0; i < 5; i++ {
		_, err := repository.StoreMessage(fmt.Sprintf("message %d", i), "Bob")
		req.NoError(err)
	}

	// Then only the latest two remain, still ascending
	messages, err := repository.GetMessages()
	req.NoError(err)
	req.Len(messages, limit)
	req.Equal("message 3", messages[0].Content)
	req.Equal("message 4", messages[1].Content)
}

func Test_Hundred_And_One_Messages_Are_All_Returned_In_Order(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	req.NoError(err)

	total := 101
	for i := 0; i < total; i++ {
		_, err := repository.StoreMessage(fmt.Sprintf("message %d", i), "Clara")
		req.NoError(err)
	}

	// Then no truncation happens at the storage layer
	messages, err := repository.GetMessages()
	req.NoError(err)
	req.Len(messages, total)
	for i, message := range messages {
		req.Equal(fmt.Sprintf("message %d", i), message.Content)
		req.Equal(uint64(i+1), message.ID)
	}
}

func Test_Concurrent_Appends_Keep_A_Single_Total_Order(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	req.NoError(err)

	// When many senders append concurrently
	senders := 8
	perSender := 25
	var wg sync.WaitGroup
	wg.Add(senders)
	for s := 0; s < senders; s++ {
		go func(s int) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				_, err := repository.StoreMessage(fmt.Sprintf("from %d", s), fmt.Sprintf("user%d", s))
				require.NoError(t, err)
			}
		}(s)
	}
	wg.Wait()

	// Then every reader observes the same strictly increasing sequence
	messages, err := repository.GetMessages()
	req.NoError(err)
	req.Len(messages, senders*perSender)
	for i := 1; i < len(messages); i++ {
		req.Greater(messages[i].ID, messages[i-1].ID)
		req.False(messages[i].At.Before(messages[i-1].At))
	}
}
