package domain

// SessionState tracks where a connection stands in its lifecycle.
// A session is Connected when the transport link is established, Joined once
// a username has been bound, and removed from the registry when Closed.
type SessionState int

const (
	Connected SessionState = iota
	Joined
)

// Session is the per-connection record owned by the presence registry.
// Username is empty until a successful join binds it, and once bound it
// never changes for the lifetime of the connection.
type Session struct {
	ConnectionID string
	Username     string
	State        SessionState
}
