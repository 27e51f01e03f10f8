package contextmgr

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/switchboard/internal/state"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// session's current lifecycle state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrSessionExists is returned by Start for an id already in the store.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = state.ErrSessionNotFound
)

// PersistenceError reports a failed store operation.
type PersistenceError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
