package domain

import "time"

// MaxUsernameLength bounds stored usernames.
const MaxUsernameLength = 50

// User is the durable record of a username that completed a join at least
// once. JoinedAt is the instant of the first-ever join and never changes.
type User struct {
	ID       uint64
	Username string
	JoinedAt time.Time
}
