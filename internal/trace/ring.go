package trace

import (
	"io"
	"sync"
)

// RingWriter keeps the last lines written to it in memory. It serves as a
// SetWriter destination for capturing recent output for crash dumps and
// tests.
type RingWriter struct {
	mu       sync.RWMutex
	lines    []string
	capacity int
	head     int  // next write position
	full     bool // has wrapped around
}

// NewRingWriter keeps up to capacity lines.
func NewRingWriter(capacity int) *RingWriter {
	if capacity <= 0 {
		capacity = 256
	}
	return &RingWriter{lines: make([]string, capacity), capacity: capacity}
}

// Write stores p as one line.
func (w *RingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lines[w.head] = string(p)
	w.head = (w.head + 1) % w.capacity
	if w.head == 0 {
		w.full = true
	}
	return len(p), nil
}

// Lines returns the stored lines oldest first.
func (w *RingWriter) Lines() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.full {
		out := make([]string, w.head)
		copy(out, w.lines[:w.head])
		return out
	}
	out := make([]string, w.capacity)
	copy(out, w.lines[w.head:])
	copy(out[w.capacity-w.head:], w.lines[:w.head])
	return out
}

// Dump writes the stored lines to dst oldest first.
func (w *RingWriter) Dump(dst io.Writer) error {
	for _, line := range w.Lines() {
		if _, err := io.WriteString(dst, line); err != nil {
			return err
		}
	}
	return nil
}
