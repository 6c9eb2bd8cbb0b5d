// Package ws exposes the realtime channel: a websocket upgrade endpoint,
// per-connection read/write pumps, and the JSON envelopes exchanged with
// clients.
package ws

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"message-room/domain"
	"message-room/domain/event"
)

// Inbound is a client action. Method selects the operation; the remaining
// fields are that operation's parameters.
type Inbound struct {
	Method   string `json:"method"`
	Username string `json:"username,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Client action method names.
const (
	MethodJoinChat       = "JoinChat"
	MethodSendMessage    = "SendMessage"
	MethodGetChatHistory = "GetChatHistory"
)

// Outbound is a server notification: the event kind plus its payload.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type messagePayload struct {
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// EncodeEvent renders a domain event as its wire envelope.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	var data any
	switch evt := e.(type) {
	case event.MessageReceived:
		data = messagePayload{
			Username:  evt.Username,
			Content:   evt.Content,
			Timestamp: evt.At.Format(domain.WireTimestamp),
		}
	case event.UserJoined:
		data = struct {
			Username string `json:"username"`
		}{evt.Username}
	case event.UserCountUpdated:
		data = struct {
			Count int `json:"count"`
		}{evt.Count}
	case event.UserListUpdated:
		data = struct {
			Usernames []string `json:"usernames"`
		}{evt.Usernames}
	case event.ChatHistory:
		data = struct {
			Messages []messagePayload `json:"messages"`
		}{lo.Map(evt.Messages, func(item event.HistoryEntry, _ int) messagePayload {
			return messagePayload{
				Username:  item.Username,
				Content:   item.Content,
				Timestamp: item.At.Format(domain.WireTimestamp),
			}
		})}
	case event.ErrorNotice:
		data = struct {
			Message string `json:"message"`
		}{evt.Message}
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind())
	}
	return json.Marshal(Outbound{Event: e.Kind(), Data: data})
}
