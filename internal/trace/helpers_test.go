package trace

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

var epoch = time.Date(2024, time.January, 2, 3, 4, 5, 6_000_000, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestRegistry returns a registry with a fixed clock, a test logger and
// stderr captured in the returned buffer.
func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *fakeClock, *bytes.Buffer) {
	t.Helper()
	clock := &fakeClock{t: epoch}
	var stderr bytes.Buffer
	base := []Option{
		WithLogger(zaptest.NewLogger(t).Sugar()),
		WithClock(clock.now),
		WithStderr(&stderr),
		WithDefaultName("testbin"),
	}
	r := New(append(base, opts...)...)
	t.Cleanup(func() { _ = r.Close() })
	return r, clock, &stderr
}

// addFlags opens ctx and installs module mod with the named flags.
func addFlags(t *testing.T, r *Registry, ctx, mod string, flags ...string) (ContextID, []ID) {
	t.Helper()
	cid, err := r.OpenContext(ctx)
	require.NoError(t, err)
	b := NewModule(mod)
	for _, f := range flags {
		b.Flag(f, f+" flag", nil)
	}
	ids, err := r.AddModule(cid, b.Def())
	require.NoError(t, err)
	require.Len(t, ids, len(flags))
	return cid, ids
}

// newBufferLogger logs everything at debug level and up into buf.
func newBufferLogger(buf *bytes.Buffer) *zap.SugaredLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
	return zap.New(core).Sugar()
}
