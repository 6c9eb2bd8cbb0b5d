// Package domain contains core concepts of the chat room.
// Messages are immutable and validated before they reach this layer.
package domain

import "time"

// WireTimestamp is the timestamp layout exchanged with clients.
const WireTimestamp = "2006-01-02 15:04:05"

// Message represents an immutable chat message.
// ID is a monotonic sequence assigned at append time and is the tie-break
// whenever two messages share the same timestamp.
type Message struct {
	ID       uint64
	Username string
	Content  string
	At       time.Time
}
