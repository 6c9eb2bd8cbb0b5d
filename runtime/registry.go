// Package runtime coordinates presence, session lifecycle and fan-out.
// It orchestrates the system without containing storage or transport logic.
package runtime

import (
	"sync"

	"github.com/google/uuid"

	"message-room/contract"
	"message-room/domain"
	apperrors "message-room/errors"
)

type session struct {
	username string
	sink     contract.EventSink
}

// Registry is the single source of truth for live presence. Every handler
// goroutine reads and mutates it through these methods only; the internal
// mutex is the serialization point that keeps bind/unbind/count atomic.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session // connection id -> session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session)}
}

// CreateSession registers a new unbound session and returns its connection id.
func (r *Registry) CreateSession(sink contract.EventSink) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	connectionID := uuid.NewString()
	r.sessions[connectionID] = &session{sink: sink}
	return connectionID
}

// Bind associates a username with a connection and returns the new distinct
// live-username count. A session can be bound exactly once.
func (r *Registry) Bind(connectionID, username string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return 0, apperrors.ErrUnknownSession
	}
	if s.username != "" {
		return 0, apperrors.ErrAlreadyJoined
	}
	s.username = username
	return r.liveCountLocked(), nil
}

// Unbind removes a session and returns the remaining live count. It is
// idempotent: removing an absent or unbound session is a no-op, so duplicate
// close signals from the transport never double-decrement presence.
func (r *Registry) Unbind(connectionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connectionID)
	return r.liveCountLocked()
}

// LiveUsernames snapshots the distinct currently-bound usernames.
func (r *Registry) LiveUsernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var usernames []string
	for _, s := range r.sessions {
		if s.username == "" {
			continue
		}
		if _, ok := seen[s.username]; ok {
			continue
		}
		seen[s.username] = struct{}{}
		usernames = append(usernames, s.username)
	}
	return usernames
}

// LiveCount returns the number of distinct currently-bound usernames. Two
// connections bound to the same username count once.
func (r *Registry) LiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveCountLocked()
}

func (r *Registry) liveCountLocked() int {
	seen := make(map[string]struct{})
	for _, s := range r.sessions {
		if s.username != "" {
			seen[s.username] = struct{}{}
		}
	}
	return len(seen)
}

// Sinks snapshots the delivery channels of every live session, bound or not,
// for broadcast outside the lock.
func (r *Registry) Sinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, s := range r.sessions {
		sinks = append(sinks, s.sink)
	}
	return sinks
}

// SinkOf resolves the delivery channel of a single connection.
func (r *Registry) SinkOf(connectionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return nil, false
	}
	return s.sink, true
}

// SessionOf snapshots the lifecycle record of a single connection.
func (r *Registry) SessionOf(connectionID string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return domain.Session{}, false
	}
	state := domain.Connected
	if s.username != "" {
		state = domain.Joined
	}
	return domain.Session{
		ConnectionID: connectionID,
		Username:     s.username,
		State:        state,
	}, true
}
