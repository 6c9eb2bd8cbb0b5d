package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"message-room/contract"
	"message-room/domain"
	"message-room/domain/event"
	apperrors "message-room/errors"
	"message-room/moderation"
	"message-room/repositories"
)

// Coordinator drives the per-session state machine
// (Connected -> Joined -> Closed) and is the only component that emits
// notifications. Callers get their rejections as Error notices; broadcasts
// go to every live session.
type Coordinator struct {
	log       *slog.Logger
	registry  contract.IRegistry
	messages  repositories.IMessageRepository
	users     repositories.IUserRepository
	moderator *moderation.Moderator
	stored    chan domain.Message

	// sendMu makes append-then-broadcast one serialization point: every
	// session observes messages in the exact order they were appended.
	sendMu sync.Mutex
}

func NewCoordinator(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, users repositories.IUserRepository,
	moderator *moderation.Moderator, bufferSize int) *Coordinator {
	return &Coordinator{
		log:       log,
		registry:  registry,
		messages:  messages,
		users:     users,
		moderator: moderator,
		stored:    make(chan domain.Message, bufferSize),
	}
}

// Stored exposes appended messages for background consumers (search index).
// Best-effort: a slow consumer loses updates, never blocks a sender.
func (c *Coordinator) Stored() <-chan domain.Message {
	return c.stored
}

// Connect registers a new unbound session and tells everyone the current
// live count, so clients render presence before anyone joins.
func (c *Coordinator) Connect(ctx context.Context, sink contract.EventSink) string {
	connectionID := c.registry.CreateSession(sink)
	c.broadcast(ctx, event.UserCountUpdated{Count: c.registry.LiveCount()})
	c.log.Debug("Session connected", "connection_id", connectionID)
	return connectionID
}

// Disconnect tears down a session. Unbind is idempotent, so duplicate close
// signals from the transport are harmless. Nothing here may fail in a way
// that prevents registry cleanup.
func (c *Coordinator) Disconnect(ctx context.Context, connectionID string) {
	count := c.registry.Unbind(connectionID)
	c.broadcast(ctx, event.UserCountUpdated{Count: count})
	c.log.Debug("Session closed", "connection_id", connectionID)
}

// JoinChat binds a validated username to the session, records the user
// durably, then notifies everyone. The caller alone receives the live
// username list.
func (c *Coordinator) JoinChat(ctx context.Context, connectionID, username string) error {
	if err := ValidateUsername(username); err != nil {
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: err.Error()})
		return err
	}

	// A rejected join must leave no trace, so the session state is checked
	// before anything durable happens. Actions of one connection arrive in
	// order, so the state cannot flip between this check and the bind.
	session, ok := c.registry.SessionOf(connectionID)
	if !ok {
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: apperrors.ErrUnknownSession.Error()})
		return apperrors.ErrUnknownSession
	}
	if session.State == domain.Joined {
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: apperrors.ErrAlreadyJoined.Error()})
		return apperrors.ErrAlreadyJoined
	}

	// Durable registration still precedes the bind: an idempotent user row
	// for an accepted join survives a crash between the two steps, the
	// reverse order would break history.
	if _, err := c.users.Upsert(username); err != nil {
		c.log.Error("User registration failed", "username", username, "error", err)
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: "could not register user"})
		return err
	}

	count, err := c.registry.Bind(connectionID, username)
	if err != nil {
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: err.Error()})
		return err
	}

	c.broadcast(ctx, event.UserJoined{Username: username})
	c.broadcast(ctx, event.UserCountUpdated{Count: count})
	c.notifyCaller(ctx, connectionID, event.UserListUpdated{Usernames: c.registry.LiveUsernames()})
	c.log.Info("User joined", "username", username, "live_count", count)
	return nil
}

// SendMessage appends the (censored) content under the sender's bound
// username and broadcasts it to all sessions, sender included.
func (c *Coordinator) SendMessage(ctx context.Context, connectionID, content string) error {
	session, ok := c.registry.SessionOf(connectionID)
	if !ok {
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: apperrors.ErrUnknownSession.Error()})
		return apperrors.ErrUnknownSession
	}
	if session.State != domain.Joined {
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: apperrors.ErrNotJoined.Error()})
		return apperrors.ErrNotJoined
	}
	if content == "" {
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: apperrors.ErrEmptyContent.Error()})
		return apperrors.ErrEmptyContent
	}

	if c.moderator != nil {
		content = c.moderator.Censor(content)
	}

	c.sendMu.Lock()
	message, err := c.messages.StoreMessage(content, session.Username)
	if err != nil {
		c.sendMu.Unlock()
		c.log.Error("Message append failed", "username", session.Username, "error", err)
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: "could not store message"})
		return err
	}
	c.broadcast(ctx, event.MessageReceived{
		ID:       message.ID,
		Username: message.Username,
		Content:  message.Content,
		At:       message.At,
	})
	c.sendMu.Unlock()

	select {
	case c.stored <- message:
	default:
		c.log.Debug("Index feed full, message not queued", "id", message.ID)
	}
	return nil
}

// GetChatHistory replies to the caller only, never broadcast.
func (c *Coordinator) GetChatHistory(ctx context.Context, connectionID string) error {
	messages, err := c.messages.GetMessages()
	if err != nil {
		c.log.Error("History read failed", "error", err)
		c.notifyCaller(ctx, connectionID, event.ErrorNotice{Message: "could not load history"})
		return err
	}
	history := event.ChatHistory{
		Messages: lo.Map(messages, func(item domain.Message, _ int) event.HistoryEntry {
			return event.HistoryEntry{
				Username: item.Username,
				Content:  item.Content,
				At:       item.At,
			}
		}),
	}
	c.notifyCaller(ctx, connectionID, history)
	return nil
}

// broadcast fans an event out to a snapshot of all live sessions. Sink
// failures are transport faults: logged, never propagated, so one broken
// connection cannot stall the others or block cleanup.
func (c *Coordinator) broadcast(ctx context.Context, e event.DomainEvent) {
	for _, sink := range c.registry.Sinks() {
		if err := sink.Consume(ctx, e); err != nil {
			c.log.Warn(fmt.Sprintf("Dropped %s event on broadcast", e.Kind()), "error", err)
		}
	}
}

func (c *Coordinator) notifyCaller(ctx context.Context, connectionID string, e event.DomainEvent) {
	sink, ok := c.registry.SinkOf(connectionID)
	if !ok {
		return
	}
	if err := sink.Consume(ctx, e); err != nil {
		c.log.Warn(fmt.Sprintf("Dropped %s reply", e.Kind()), "connection_id", connectionID, "error", err)
	}
}
