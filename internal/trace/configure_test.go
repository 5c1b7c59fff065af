package trace

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
)

func TestSplitCommands(t *testing.T) {
	got := splitCommands(`a enable; b format '%c; %M'` + "\n" + `c filter x="1;2";d`)
	assert.Equal(t, []string{"a enable", ` b format '%c; %M'`, `c filter x="1;2"`, "d"}, got)
}

func TestApplyFlags(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, net := addFlags(t, r, "app", "net", "rx", "tx", "drop")
	_, disk := addFlags(t, r, "app", "disk", "read", "rx")
	_, other := addFlags(t, r, "other", "net", "rx")

	require.NoError(t, r.Apply("app.net=rx,+tx"))
	assert.True(t, r.FlagTest(net[0]))
	assert.True(t, r.FlagTest(net[1]))
	assert.False(t, r.FlagTest(net[2]))
	assert.False(t, r.FlagTest(disk[1]))

	require.NoError(t, r.Apply("app.net=-rx"))
	assert.False(t, r.FlagTest(net[0]))

	// no module: every module with that flag
	require.NoError(t, r.Apply("app=rx"))
	assert.True(t, r.FlagTest(net[0]))
	assert.True(t, r.FlagTest(disk[1]))
	assert.False(t, r.FlagTest(other[0]))

	require.NoError(t, r.Apply("app.*=-all"))
	for _, id := range append(net, disk...) {
		assert.False(t, r.FlagTest(id))
	}

	require.NoError(t, r.Apply("*.net=*"))
	assert.True(t, r.FlagTest(net[2]))
	assert.True(t, r.FlagTest(other[0]))
	assert.False(t, r.FlagTest(disk[0]))
}

func TestApplyContextCommands(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	cid, _ := addFlags(t, r, "app", "net", "rx")
	path := filepath.Join(t.TempDir(), "out.log")

	err := r.Apply(`app enable; app format '[%c] %M'; app > ` + path + `; app filter i=1 k="a b"; app regexp j=^x`)
	require.NoError(t, err)
	assert.True(t, r.Enabled(cid))
	format, _ := r.Format(cid)
	assert.Equal(t, "[%c] %M", format)
	target, _ := r.Target(cid)
	assert.Equal(t, path, target)
	assert.True(t, r.Passes(cid, filter.T("i", "1", "k", "a b")))
	assert.True(t, r.Passes(cid, filter.T("j", "xyz")))

	require.NoError(t, r.Apply(`app unfilter k="a b" i=1; app unregexp j=^x; app target stderr; app disable`))
	assert.False(t, r.Passes(cid, filter.T("i", "1", "k", "a b")))
	assert.False(t, r.Enabled(cid))
	target, _ = r.Target(cid)
	assert.Equal(t, TargetStderr, target)

	require.NoError(t, r.Apply("app filter all; app reset-filters"))
	assert.False(t, r.Passes(cid, nil))

	require.NoError(t, r.Apply(`app format "%M"`))
	format, _ = r.Format(cid)
	assert.Equal(t, "%M", format)

	require.NoError(t, r.Apply("default disable; * enable"))
	assert.True(t, r.Enabled(DefaultContext))
	assert.True(t, r.Enabled(cid))
}

func TestApplyBestEffort(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	cid, ids := addFlags(t, r, "app", "net", "rx", "tx")

	err := r.Apply("app.net=rx; nosuch enable; app.nosuch=rx; app.net=bogus,tx; app enable")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), `"nosuch"`)
	assert.Contains(t, err.Error(), `"bogus"`)

	assert.True(t, r.FlagTest(ids[0]), "earlier command must stay applied")
	assert.True(t, r.FlagTest(ids[1]), "known flags of a partly failing command still apply")
	assert.True(t, r.Enabled(cid), "later command must still run")
}

func TestApplySyntaxErrors(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	addFlags(t, r, "app", "net", "rx")

	for _, text := range []string{
		".net=rx",
		"app.=rx",
		"app.net",
		"app",
		"app explode",
		"app enable now",
		"app format '%c",
		"app format %q",
		"app.net=r x",
		"app target",
		"app filter",
		"app reset-filters please",
	} {
		err := r.Apply(text)
		assert.True(t, errors.IsInvalid(err), "%q: %v", text, err)
	}
}

func TestApplyWildcardContextSkipsMissingModules(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, ids := addFlags(t, r, "a", "only", "f")
	addFlags(t, r, "b", "else", "g")
	require.NoError(t, r.Apply("*.only=f"))
	assert.True(t, r.FlagTest(ids[0]))
	require.NoError(t, r.Apply("*.ghost=f"))
}

func TestApplyCommentsAndBlankLines(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	cid, _ := addFlags(t, r, "app", "net", "rx")
	require.NoError(t, r.Apply("\n# turn it on\n\napp enable\n;;\n"))
	assert.True(t, r.Enabled(cid))
}

func TestShowRoundTrip(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, net := addFlags(t, r, "app", "net", "rx", "tx")
	_, def := addFlags(t, r, "default", "core", "boot")
	require.NoError(t, r.FlagSet(net[1]))
	require.NoError(t, r.FlagSet(def[0]))

	shown := r.Show()
	assert.Equal(t, "testbin.core=+boot\napp.net=-rx\napp.net=+tx\n", shown)

	require.NoError(t, r.Apply("*.*=all"))
	require.NoError(t, r.Apply(shown))
	assert.False(t, r.FlagTest(net[0]))
	assert.True(t, r.FlagTest(net[1]))
	assert.True(t, r.FlagTest(def[0]))
}

func TestApplyLogsFailures(t *testing.T) {
	var logs bytes.Buffer
	r, _, _ := newTestRegistry(t, WithLogger(newBufferLogger(&logs)))
	_ = r.Apply("nosuch enable")
	assert.Contains(t, logs.String(), "trace configuration command failed")
	assert.Contains(t, logs.String(), "nosuch enable")
}
