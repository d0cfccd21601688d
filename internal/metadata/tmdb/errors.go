package tmdb

import (
	"errors"
	"fmt"
)

// Sentinel errors for TMDB API operations.
var (
	ErrMissingAPIKey = errors.New("tmdb: API key is missing")
	ErrInvalidID     = errors.New("tmdb: invalid id")
	ErrNotFound      = errors.New("tmdb: not found")
	ErrUnauthorized  = errors.New("tmdb: unauthorized")
	ErrRateLimited   = errors.New("tmdb: rate limited by server")
	ErrServer        = errors.New("tmdb: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Operation: "tvCertifications", "movieCertifications"
	ID  int
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tmdb %s [%d]: %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op string, id int, err error) error {
	return &Error{
		Op:  op,
		ID:  id,
		Err: err,
	}
}
