// Package event defines the notifications the coordinator emits, either to
// a single caller or fanned out to every live session. Kind doubles as the
// wire-level event name pushed to clients.
package event

import "time"

type DomainEvent interface {
	Kind() string
}

// MessageReceived is broadcast to all sessions, sender included, in the
// exact order messages were appended to the store.
type MessageReceived struct {
	ID       uint64
	Username string
	Content  string
	At       time.Time
}

func (MessageReceived) Kind() string { return "ReceiveMessage" }

// UserJoined is broadcast to all sessions after a successful join.
type UserJoined struct {
	Username string
}

func (UserJoined) Kind() string { return "UserJoined" }

// UserCountUpdated carries the number of distinct currently-bound usernames.
type UserCountUpdated struct {
	Count int
}

func (UserCountUpdated) Kind() string { return "UserCountUpdated" }

// UserListUpdated is sent to the joining caller only.
type UserListUpdated struct {
	Usernames []string
}

func (UserListUpdated) Kind() string { return "UserListUpdated" }

// HistoryEntry is one message of a ChatHistory reply.
type HistoryEntry struct {
	Username string
	Content  string
	At       time.Time
}

// ChatHistory is the caller-only reply to GetChatHistory.
type ChatHistory struct {
	Messages []HistoryEntry
}

func (ChatHistory) Kind() string { return "ChatHistory" }

// ErrorNotice reports a rejected action to the caller only. The connection
// stays open.
type ErrorNotice struct {
	Message string
}

func (ErrorNotice) Kind() string { return "Error" }
