package trace

import (
	"io"
	"time"

	"go.uber.org/zap"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report rejected formats, filters and
// configuration text. The default discards everything.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithSafeMode makes the registry safe for concurrent use.
func WithSafeMode() Option {
	return func(r *Registry) { r.safe = true }
}

// WithClock replaces the wall clock used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithStdout replaces the writer behind the "stdout" target.
func WithStdout(w io.Writer) Option {
	return func(r *Registry) { r.stdout.w = w }
}

// WithStderr replaces the writer behind the "stderr" target.
func WithStderr(w io.Writer) Option {
	return func(r *Registry) { r.stderr.w = w }
}

// WithDefaultName names the default context instead of the binary name.
func WithDefaultName(name string) Option {
	return func(r *Registry) { r.defaultName = name }
}

// WithBufferSize sets the capacity of each context's line buffer. Lines
// longer than this are truncated.
func WithBufferSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.bufSize = n
		}
	}
}
