package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"message-room/domain/event"
)

func Test_EncodeEvent_Renders_The_Wire_Envelope(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, time.March, 1, 10, 30, 0, 0, time.UTC)

	raw, err := EncodeEvent(event.MessageReceived{ID: 42, Username: "alice", Content: "hello", At: at})
	req.NoError(err)
	req.JSONEq(`{
		"event": "ReceiveMessage",
		"data": {"username": "alice", "content": "hello", "timestamp": "2026-03-01 10:30:00"}
	}`, string(raw))

	raw, err = EncodeEvent(event.UserCountUpdated{Count: 3})
	req.NoError(err)
	req.JSONEq(`{"event": "UserCountUpdated", "data": {"count": 3}}`, string(raw))

	raw, err = EncodeEvent(event.ErrorNotice{Message: "you must join the chat first"})
	req.NoError(err)
	req.JSONEq(`{"event": "Error", "data": {"message": "you must join the chat first"}}`, string(raw))
}

func Test_EncodeEvent_Renders_History_Entries(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, time.March, 1, 10, 30, 0, 0, time.UTC)

	raw, err := EncodeEvent(event.ChatHistory{Messages: []event.HistoryEntry{
		{Username: "alice", Content: "first", At: at},
		{Username: "bob", Content: "second", At: at.Add(time.Minute)},
	}})
	req.NoError(err)
	req.JSONEq(`{
		"event": "ChatHistory",
		"data": {"messages": [
			{"username": "alice", "content": "first", "timestamp": "2026-03-01 10:30:00"},
			{"username": "bob", "content": "second", "timestamp": "2026-03-01 10:31:00"}
		]}
	}`, string(raw))
}

func Test_Inbound_Actions_Decode_From_Client_JSON(t *testing.T) {
	req := require.New(t)

	var action Inbound
	req.NoError(json.Unmarshal([]byte(`{"method": "JoinChat", "username": "alice"}`), &action))
	req.Equal(MethodJoinChat, action.Method)
	req.Equal("alice", action.Username)

	req.NoError(json.Unmarshal([]byte(`{"method": "SendMessage", "content": "hello"}`), &action))
	req.Equal(MethodSendMessage, action.Method)
	req.Equal("hello", action.Content)
}
