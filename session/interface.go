package session

import "context"

// Store defines the interface for durable session storage. The client holds
// at most one session at a time, so the contract is load/save/clear rather
// than a keyed CRUD surface.
type Store interface {
	// Load retrieves the persisted session.
	// Returns nil if no session is persisted (not an error).
	Load(ctx context.Context) (*Session, error)

	// Save persists the session, replacing any previous one.
	Save(ctx context.Context, s *Session) error

	// Clear removes the persisted session. Clearing an empty store is not
	// an error.
	Clear(ctx context.Context) error

	// Close closes the store and releases any resources.
	Close() error
}
