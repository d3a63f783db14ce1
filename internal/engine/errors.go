package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotActivated is returned by setup calls before Activate.
	ErrNotActivated = errors.New("engine not activated")

	// ErrAlreadyActivated is returned by a second Activate call.
	ErrAlreadyActivated = errors.New("engine already activated")

	// ErrMessageGone marks operations against a message that no longer
	// exists. Adapters map their platform's not-found errors to it.
	ErrMessageGone = errors.New("message no longer exists")
)

// AccessError marks a platform operation rejected for insufficient
// privilege. Setup calls propagate it to the caller; during interaction
// handling it is swallowed after best-effort cleanup.
type AccessError struct {
	Op  string
	Err error
}

func (e *AccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: insufficient permission", e.Op)
	}
	return fmt.Sprintf("%s: insufficient permission: %v", e.Op, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// IsAccess reports whether err is (or wraps) an AccessError.
func IsAccess(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}
