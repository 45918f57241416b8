package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen matches every NotOpenError.
	ErrNotOpen = errors.New("client: session not open")

	// ErrAlreadyOpened is returned by Open outside the Connecting state.
	ErrAlreadyOpened = errors.New("client: session already opened")
)

// NotOpenError reports a send attempted while the session was not Open.
// No frame was written.
type NotOpenError struct {
	State State
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("client: cannot send while session is %s", e.State)
}

func (e *NotOpenError) Unwrap() error {
	return ErrNotOpen
}
