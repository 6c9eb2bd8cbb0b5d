package sink

import (
	"context"
	"sync"

	"message-room/domain"
	"message-room/domain/event"
)

// Timeline accumulates received messages in memory, in delivery order.
type Timeline struct {
	mu       sync.Mutex
	Owner    string
	Messages []domain.Message
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{Owner: owner}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	received, ok := e.(event.MessageReceived)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Messages = append(t.Messages, domain.Message{
		ID:       received.ID,
		Username: received.Username,
		Content:  received.Content,
		At:       received.At,
	})
	return nil
}

// Snapshot copies the timeline for inspection without holding the lock.
func (t *Timeline) Snapshot() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Message(nil), t.Messages...)
}
