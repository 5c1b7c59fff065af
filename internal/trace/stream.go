package trace

import (
	"io"
	"os"
	"sync"

	"nsntrace/internal/errors"
)

// Target names understood by SetTarget.
const (
	TargetStderr = "stderr"
	TargetStdout = "stdout"
	TargetWriter = "writer" // reported for destinations set with SetWriter
)

// stream is a trace destination. Lines are written immediately and flushed
// when the writer supports it. The stdout and stderr streams are shared by
// every context that targets them.
type stream struct {
	mu     sync.Mutex
	w      io.Writer
	target string
	owned  bool // opened by the registry, closed when replaced
}

// write emits one line. Trace output is best effort: write errors never
// reach the traced code.
func (s *stream) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(line); err != nil {
		return
	}
	if flusher, ok := s.w.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}
}

// close releases a stream the registry opened. Shared and caller-owned
// writers are left alone.
func (s *stream) close() error {
	if !s.owned {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if closer, ok := s.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// openTarget resolves a target name to a stream. Paths are opened for
// appending and created when missing.
func (r *Registry) openTarget(target string) (*stream, error) {
	switch target {
	case "", "-", TargetStderr:
		return r.stderr, nil
	case TargetStdout:
		return r.stdout, nil
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalid, "open trace target %q: %v", target, err)
	}
	return &stream{w: f, target: target, owned: true}, nil
}
