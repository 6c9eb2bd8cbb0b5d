// Package sink provides EventSink implementations bridging the coordinator
// to consumers: a buffered channel per live connection, and an in-memory
// timeline.
package sink

import (
	"context"

	"message-room/domain/event"
)

// Channel buffers events for one connection. The transport's write pump
// owns the draining side.
type Channel struct {
	Events chan event.DomainEvent
}

func NewChannel(bufferSize int) *Channel {
	return &Channel{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume hands the event to the connection's write pump. A full buffer
// means the client cannot keep up; the event is dropped rather than letting
// one slow connection stall the broadcast.
func (s *Channel) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
