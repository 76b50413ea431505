package session

import (
	"time"

	ratehub "github.com/ratehub/ratehub-go"
)

// Identity is the authenticated account as returned by the backend.
type Identity struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  ratehub.Role `json:"role"`
}

// Session is the authenticated identity plus its credential token.
//
// PERSISTED:
// - Identity: the serialized identity record
// - Token: the bearer credential (expiring, ~7 days)
// - ExpiresAt: when the token stops being usable
//
// Both are cleared together on logout.
type Session struct {
	Identity  Identity  `json:"identity"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the session carries a non-empty token and a role
// from the known enumeration.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.Identity.Role.Known()
}

// Expired reports whether the session's token has passed its expiry.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// State is the lifecycle state of the session manager.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}
