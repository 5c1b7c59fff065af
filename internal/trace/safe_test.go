package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"nsntrace/internal/filter"
)

// lockedBuffer is a writer that is safe to share between contexts.
type lockedBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func TestSafeModeConcurrentHotPathAndChurn(t *testing.T) {
	r, _, _ := newTestRegistry(t, WithSafeMode())
	require.True(t, r.SafeMode())

	cid, ids := addFlags(t, r, "hot", "stable", "a", "b")
	var out lockedBuffer
	require.NoError(t, r.SetWriter(cid, &out))
	require.NoError(t, r.SetFormat(cid, "%f %M"))
	_, _ = r.Enable(cid)

	const writers = 8
	const rounds = 200

	var g errgroup.Group
	for w := 0; w < writers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				r.Tracef(ids[0], "w%d", w)
				r.TraceTagsf(ids[1], filter.T("w", fmt.Sprint(w)), "tagged")
				_ = r.FlagTest(ids[1])
			}
			return nil
		})
	}
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			ids, err := r.AddModule(cid, NewModule("churn").Flag("x", "", nil).Flag("y", "", nil).Def())
			if err != nil {
				return err
			}
			if err := r.FlagSet(ids[0]); err != nil {
				return err
			}
			if err := r.DelModule(cid, "churn"); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if i%2 == 0 {
				if err := r.FlagSet(ids[0]); err != nil {
					return err
				}
			} else {
				if err := r.Apply("hot.stable=-b"); err != nil {
					return err
				}
			}
			_ = r.Show()
			_ = r.Snapshot()
		}
		return nil
	})
	require.NoError(t, g.Wait())

	for _, line := range strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		assert.Regexp(t, `^a w\d$`, line)
	}
	assert.Equal(t, []string{"stable"}, r.Modules(cid))
}

func TestGlobalRegistry(t *testing.T) {
	mine := New(WithSafeMode(), WithStderr(io.Discard), WithDefaultName("g"))
	prev := SetGlobal(mine)
	t.Cleanup(func() { SetGlobal(prev) })

	assert.Same(t, mine, Global())
	assert.Same(t, mine, FromContext(nil)) //nolint:staticcheck // nil context is part of the contract

	SetGlobal(nil)
	fresh := Global()
	require.NotNil(t, fresh)
	assert.True(t, fresh.SafeMode())
	assert.NotSame(t, mine, fresh)
}
