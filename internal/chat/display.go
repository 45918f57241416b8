package chat

import (
	"sync"
)

// Entry is one rendered message.
type Entry struct {
	Timestamp string
	Body      string
}

// Display is an in-memory, append-only display sequence.
// Entries are never reordered, deduplicated or evicted.
type Display struct {
	entries []Entry
	mu      sync.RWMutex
}

// NewDisplay creates an empty Display.
func NewDisplay() *Display {
	return &Display{}
}

// Append adds an entry to the end of the sequence.
func (d *Display) Append(timestampLabel, bodyLabel string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, Entry{Timestamp: timestampLabel, Body: bodyLabel})
}

// Entries returns a copy of the sequence in display order.
func (d *Display) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Len returns number of rendered entries.
func (d *Display) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
