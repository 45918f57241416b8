// Package chat defines the collaborators the chat client is wired against.
package chat

import "context"

// Conn abstracts the bidirectional channel to the chat endpoint.
// This interface isolates transport details from the session.
type Conn interface {
	// Read reads a single raw frame.
	// Returns io.EOF when the remote side closed the channel.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single raw frame.
	Write(ctx context.Context, data []byte) error

	// Close closes the channel.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
