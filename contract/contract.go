//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"message-room/domain"
	"message-room/domain/event"
)

// EventSink is the delivery end of one live connection. Consume must never
// block forever; sinks are expected to buffer and drop under backpressure.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the presence registry: the single synchronized owner of
// session state shared across all connection handlers.
type IRegistry interface {
	CreateSession(sink EventSink) string
	Bind(connectionID, username string) (int, error)
	Unbind(connectionID string) int
	LiveUsernames() []string
	LiveCount() int
	Sinks() []EventSink
	SinkOf(connectionID string) (EventSink, bool)
	SessionOf(connectionID string) (domain.Session, bool)
}

// ICoordinator handles the session lifecycle and the client actions of the
// realtime channel. It is the only component that emits notifications.
type ICoordinator interface {
	Connect(ctx context.Context, sink EventSink) string
	Disconnect(ctx context.Context, connectionID string)
	JoinChat(ctx context.Context, connectionID, username string) error
	SendMessage(ctx context.Context, connectionID, content string) error
	GetChatHistory(ctx context.Context, connectionID string) error
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}
