package render

import (
	"fmt"
	"io"
	"sync"
)

const (
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// Terminal renders each entry as a "[timestamp] body" line.
type Terminal struct {
	w     io.Writer
	color bool

	mu  sync.Mutex
	err error
}

// NewTerminal creates a Terminal writing to w. With color set the timestamp
// label is dimmed with an ANSI escape.
func NewTerminal(w io.Writer, color bool) *Terminal {
	return &Terminal{w: w, color: color}
}

// Append implements Sink. After the first write error further entries are dropped.
func (t *Terminal) Append(timestampLabel, bodyLabel string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return
	}

	var err error
	if t.color {
		_, err = fmt.Fprintf(t.w, "%s[%s]%s %s\n", ansiDim, timestampLabel, ansiReset, bodyLabel)
	} else {
		_, err = fmt.Fprintf(t.w, "[%s] %s\n", timestampLabel, bodyLabel)
	}
	if err != nil {
		t.err = fmt.Errorf("failed to render entry: %w", err)
	}
}

// Err returns the first write error, if any.
func (t *Terminal) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
