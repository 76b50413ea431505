package ratehub

import (
	"errors"
	"fmt"
)

// Common errors shared across the client packages.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("record not found")
)

// AuthError reports a rejected credential exchange: bad credentials, an
// expired or invalid token, or an unreachable auth endpoint.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth failed (%d): %s", e.Status, e.Message)
	}
	return "auth failed: " + e.Message
}

// FetchError reports a transport or server failure while reading a
// collection. Callers surface the message and keep their current state.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch failed (%d): %s", e.Status, e.Message)
	}
	return "fetch failed: " + e.Message
}

// MutationError reports a create or update rejected by the server, for
// example a duplicate email. Code carries the server's machine-readable
// error code when it sends one.
type MutationError struct {
	Status  int
	Code    string
	Message string
}

func (e *MutationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("mutation failed (%d): %s", e.Status, e.Message)
	}
	return "mutation failed: " + e.Message
}

// ValidationError reports a client-side form constraint violation. It is
// resolved entirely locally and blocks submission before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
