//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"message-room/domain"
	apperrors "message-room/errors"
)

type IMessageRepository interface {
	StoreMessage(content, username string) (domain.Message, error)
	GetMessages() ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	seq           *badger.Sequence
	log           *slog.Logger
	limitMessages *int
	mu            sync.Mutex
}

// NewMessageRepository reserves the message id sequence. limitMessages caps
// how many of the most recent messages GetMessages returns; nil means all.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:message"), 64)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log, limitMessages: limitMessages}, nil
}

// Close releases the unused tail of the id sequence back to Badger.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

type diskMessage struct {
	ID       uint64 `cbor:"1,keyasint"`
	Username string `cbor:"2,keyasint"`
	Content  string `cbor:"3,keyasint"`
	At       int64  `cbor:"4,keyasint"`
}

// StoreMessage assigns the next sequence id and the current UTC instant,
// then persists the message. The key is "msg:{id_padded}" so a forward key
// scan yields messages in id order. Id assignment and commit happen under
// one mutex: ids observed on disk strictly follow append order even with
// concurrent senders.
func (m *MessageRepository) StoreMessage(content, username string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, apperrors.ErrEmptyContent
	}
	if username == "" {
		return domain.Message{}, apperrors.ErrEmptyUsername
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message id: %w", err)
	}
	message := domain.Message{
		ID:       next + 1, // sequences start at 0, ids at 1
		Username: username,
		Content:  content,
		At:       time.Now().UTC(),
	}

	bytes, err := cbor.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal message: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.ID), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("store message: %w", err)
	}
	return message, nil
}

// GetMessages returns messages ordered by (timestamp, id) ascending. Ids are
// assigned in timestamp order under the store mutex, so key order is already
// the total order every reader must agree on. With a configured limit only
// the most recent messages are kept, still ascending.
func (m *MessageRepository) GetMessages() ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(messagePrefix)
		// Seek past the largest possible id, then walk backwards.
		seekKey := append([]byte(messagePrefix), []byte("99999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(raw) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var dm diskMessage
		if err = cbor.Unmarshal(raw[i], &dm); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, toMessage(dm))
	}
	return messages, nil
}

const messagePrefix = "msg:"

func messageKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", messagePrefix, id))
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:       message.ID,
		Username: message.Username,
		Content:  message.Content,
		At:       message.At.UnixNano(),
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:       dm.ID,
		Username: dm.Username,
		Content:  dm.Content,
		At:       time.Unix(0, dm.At).UTC(),
	}
}

// DecodeMessageValue decodes a raw stored message value, for inspection
// tools that walk the database directly.
func DecodeMessageValue(val []byte) (domain.Message, error) {
	var dm diskMessage
	if err := cbor.Unmarshal(val, &dm); err != nil {
		return domain.Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return toMessage(dm), nil
}
