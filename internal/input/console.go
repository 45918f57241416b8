package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// QuitCommand ends the console input loop instead of being submitted.
const QuitCommand = "/quit"

// Console is a line-oriented input widget: pressing Enter submits the line.
type Console struct {
	scanner *bufio.Scanner

	mu      sync.Mutex
	pending string
}

// NewConsole creates a Console reading lines from r.
func NewConsole(r io.Reader) *Console {
	return &Console{scanner: bufio.NewScanner(r)}
}

// Clear implements Widget.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = ""
}

// Pending returns the text of the last submit that was not cleared.
func (c *Console) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Run reads lines until EOF, QuitCommand or ctx is done, and calls submit
// for every line, empty ones included. A submit error does not stop the loop;
// it is passed to onError when that is non-nil.
func (c *Console) Run(ctx context.Context, submit func(ctx context.Context, text string) error, onError func(error)) error {
	for c.scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		text := c.scanner.Text()
		if text == QuitCommand {
			return nil
		}

		c.mu.Lock()
		c.pending = text
		c.mu.Unlock()

		if err := submit(ctx, text); err != nil && onError != nil {
			onError(err)
		}
	}

	if err := c.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
