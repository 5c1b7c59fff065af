package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
	"nsntrace/internal/trace"
)

// newRegistry returns a safe-mode registry with context "app" holding
// module "net" with flags rx and tx. Safe mode lets watcher goroutines
// apply configuration while the test inspects the registry.
func newRegistry(t *testing.T) (*trace.Registry, trace.ContextID, []trace.ID) {
	t.Helper()
	reg := trace.New(
		trace.WithLogger(zaptest.NewLogger(t).Sugar()),
		trace.WithStderr(io.Discard),
		trace.WithDefaultName("cfgtest"),
		trace.WithSafeMode(),
	)
	t.Cleanup(func() { _ = reg.Close() })
	cid, err := reg.OpenContext("app")
	require.NoError(t, err)
	ids, err := reg.AddModule(cid, trace.NewModule("net").
		Flag("rx", "received", nil).
		Flag("tx", "sent", nil).
		Def())
	require.NoError(t, err)
	return reg, cid, ids
}

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "trace.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func contextState(t *testing.T, reg *trace.Registry, name string) trace.ContextState {
	t.Helper()
	for _, c := range reg.Snapshot().Contexts {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("context %q not in snapshot", name)
	return trace.ContextState{}
}

const sample = `
trace = "app.net=+tx"

[[context]]
name           = "app"
enabled        = true
format         = "%f %M"
flags          = ["net=rx"]
filters        = ["user=alice"]
regexp_filters = ["path=/api/.*"]
`

func TestFileApply(t *testing.T) {
	reg, cid, ids := newRegistry(t)
	f, err := LoadFile(writeFile(t, t.TempDir(), sample))
	require.NoError(t, err)
	require.Len(t, f.Contexts, 1)
	assert.Equal(t, "app.net=+tx", f.Trace)

	require.NoError(t, f.Apply(reg))

	assert.True(t, reg.Enabled(cid))
	assert.True(t, reg.FlagTest(ids[0]))
	assert.True(t, reg.FlagTest(ids[1]))
	format, err := reg.Format(cid)
	require.NoError(t, err)
	assert.Equal(t, "%f %M", format)

	assert.True(t, reg.Passes(cid, nil), "pass_empty defaults to true")
	assert.True(t, reg.Passes(cid, filter.T("user", "alice")))
	assert.True(t, reg.Passes(cid, filter.T("path", "/api/users")))
	assert.False(t, reg.Passes(cid, filter.T("user", "bob")))
	assert.False(t, reg.Passes(cid, filter.T("path", "/static/api/")))
}

func TestFileApplyIsRepeatable(t *testing.T) {
	reg, _, _ := newRegistry(t)
	f, err := Parse(sample)
	require.NoError(t, err)

	require.NoError(t, f.Apply(reg))
	first := contextState(t, reg, "app")
	require.NoError(t, f.Apply(reg))
	second := contextState(t, reg, "app")

	assert.Equal(t, first, second)
	assert.Len(t, second.Filters, 1)
	assert.Len(t, second.RegexpFilters, 1)
}

func TestFileApplyPassModes(t *testing.T) {
	reg, cid, _ := newRegistry(t)
	f, err := Parse(`
[[context]]
name       = "app"
pass_empty = false
pass_all   = true
`)
	require.NoError(t, err)
	require.NoError(t, f.Apply(reg))

	st := contextState(t, reg, "app")
	assert.False(t, st.PassEmpty)
	assert.True(t, st.PassAll)
	assert.True(t, reg.Passes(cid, filter.T("anything", "goes")))
}

func TestFileApplyOpensContexts(t *testing.T) {
	reg, _, _ := newRegistry(t)
	f, err := Parse(`
[[context]]
name    = "fresh"
enabled = false
`)
	require.NoError(t, err)
	require.NoError(t, f.Apply(reg))

	cid, ok := reg.FindContext("fresh")
	require.True(t, ok)
	assert.False(t, reg.Enabled(cid))
}

func TestFileApplyBestEffort(t *testing.T) {
	reg, cid, ids := newRegistry(t)
	f, err := Parse(`
[[context]]
name    = "app"
enabled = true
format  = "%q"
flags   = ["rx", "net=tx"]
`)
	require.NoError(t, err)

	err = f.Apply(reg)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), `"rx"`)

	assert.True(t, reg.Enabled(cid))
	assert.True(t, reg.FlagTest(ids[1]))
	format, _ := reg.Format(cid)
	assert.Equal(t, trace.DefaultFormat, format)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown top-level key", "trace = \"\"\nverbose = true\n", "verbose"},
		{"unknown context key", "[[context]]\nname = \"a\"\ncolour = \"red\"\n", "context.colour"},
		{"missing name", "[[context]]\nenabled = true\n", "no name"},
		{"bad toml", "trace = \n", "decode"},
		{"wrong type", "trace = 3\n", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		EnvText: "app.net=tx",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	e := FromEnv(lookup)
	assert.Equal(t, Env{Text: "app.net=tx"}, e)
	assert.False(t, e.Empty())
	assert.True(t, FromEnv(func(string) (string, bool) { return "", false }).Empty())

	env[EnvFile] = writeFile(t, t.TempDir(), "trace = \"app.net=rx; app enable\"\n")
	reg, cid, ids := newRegistry(t)
	require.NoError(t, FromEnv(lookup).Apply(reg))
	assert.True(t, reg.Enabled(cid))
	assert.True(t, reg.FlagTest(ids[0]))
	assert.True(t, reg.FlagTest(ids[1]))
}

func TestEnvApplyMissingFileStillAppliesText(t *testing.T) {
	reg, _, ids := newRegistry(t)
	e := Env{Text: "app.net=rx", File: filepath.Join(t.TempDir(), "nope.toml")}
	err := e.Apply(reg)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, reg.FlagTest(ids[0]))
}
