package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
)

func populated(t *testing.T) (*Registry, ContextID, []ID) {
	t.Helper()
	r, _, _ := newTestRegistry(t)
	cid, ids := addFlags(t, r, "app", "net", "rx", "tx")
	require.NoError(t, r.Apply(`app enable; app format "it's %c: %M"; app filter i=1; app regexp name=ab; app.net=tx`))
	return r, cid, ids
}

func TestSnapshotContents(t *testing.T) {
	r, cid, ids := populated(t)
	snap := r.Snapshot()
	require.Len(t, snap.Contexts, 2)

	def := snap.Contexts[0]
	assert.Equal(t, DefaultContext, def.ID)
	assert.Equal(t, "testbin", def.Name)
	assert.True(t, def.Enabled)
	assert.True(t, def.PassAll)

	app := snap.Contexts[1]
	assert.Equal(t, cid, app.ID)
	assert.True(t, app.Enabled)
	assert.Equal(t, TargetStderr, app.Target)
	assert.Equal(t, "it's %c: %M", app.Format)
	assert.True(t, app.PassEmpty)
	assert.Equal(t, []string{"i=1"}, app.Filters)
	assert.Equal(t, []string{"name=ab"}, app.RegexpFilters)
	assert.Equal(t, []int{0, 1}, app.AllocatedBits)
	assert.Equal(t, []int{1}, app.EnabledBits)
	require.Len(t, app.Modules, 1)
	assert.Equal(t, []FlagState{
		{Name: "rx", Description: "rx flag", Bit: 0, ID: ids[0]},
		{Name: "tx", Description: "tx flag", Bit: 1, ID: ids[1], On: true},
	}, app.Modules[0].Flags)
}

func TestSnapshotEncodings(t *testing.T) {
	r, _, _ := populated(t)
	snap := r.Snapshot()

	for _, format := range []SnapshotFormat{SnapshotJSON, SnapshotMsgpack} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeSnapshot(&buf, snap, format))
			got, err := DecodeSnapshot(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, snap, got)
		})
	}

	_, err := DecodeSnapshot(bytes.NewBufferString("{"), SnapshotJSON)
	assert.True(t, errors.IsInvalid(err))
	_, err = DecodeSnapshot(bytes.NewBufferString(""), SnapshotText)
	assert.True(t, errors.IsInvalid(err))
}

func TestSnapshotConfigRestore(t *testing.T) {
	r, _, _ := populated(t)
	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(&buf, r.Snapshot(), SnapshotText))
	assert.Contains(t, buf.String(), `app format "it's %c: %M"`)
	assert.Contains(t, buf.String(), "app.net=+tx")

	// a fresh process declares the same module, then restores
	fresh, _, _ := newTestRegistry(t)
	cid, ids := addFlags(t, fresh, "app", "net", "rx", "tx")
	require.NoError(t, fresh.Restore(r.Snapshot()))

	assert.True(t, fresh.Enabled(cid))
	assert.False(t, fresh.FlagTest(ids[0]))
	assert.True(t, fresh.FlagTest(ids[1]))
	format, _ := fresh.Format(cid)
	assert.Equal(t, "it's %c: %M", format)
	assert.True(t, fresh.Passes(cid, filter.T("i", "1")))
	assert.True(t, fresh.Passes(cid, filter.T("name", "abc")))
	assert.True(t, fresh.Passes(cid, nil))
}

func TestSnapshotConfigQuoting(t *testing.T) {
	snap := Snapshot{Contexts: []ContextState{{ID: 1, Name: "x", Target: TargetStderr, Format: `both ' and "`}}}
	_, err := snap.Config()
	assert.True(t, errors.IsInvalid(err))

	snap.Contexts[0].Format = "%M"
	snap.Contexts[0].Target = "/tmp/with space.log"
	text, err := snap.Config()
	require.NoError(t, err)
	assert.Contains(t, text, "x target '/tmp/with space.log'\n")
}

func TestParseSnapshotFormat(t *testing.T) {
	for in, want := range map[string]SnapshotFormat{"": SnapshotText, "json": SnapshotJSON, "MsgPack": SnapshotMsgpack} {
		got, err := ParseSnapshotFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSnapshotFormat("yaml")
	assert.True(t, errors.IsInvalid(err))
}
