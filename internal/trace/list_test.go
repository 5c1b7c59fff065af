package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsntrace/internal/errors"
)

func TestListFlags(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	cid, ids := addFlags(t, r, "app", "net", "rx", "tx")
	require.NoError(t, r.FlagSet(ids[1]))

	got, err := r.ListFlags(cid, "", "\n", 1024)
	require.NoError(t, err)
	assert.Equal(t, "  net.rx:\trx flag\n  net.tx:\ttx flag", got)

	got, err = r.ListFlags(cid, "%c %-8F %3s", "|", 1024)
	require.NoError(t, err)
	assert.Equal(t, "app net.rx   off|app net.tx    on", got)
}

func TestListFlagsAllContexts(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	addFlags(t, r, "a", "m", "x")
	addFlags(t, r, "default", "core", "y")
	got, err := r.ListFlags(AllContexts, "%c.%F", ",", 1024)
	require.NoError(t, err)
	assert.Equal(t, "testbin.core.y,a.m.x", got)
}

func TestListFlagsEmptyAndErrors(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	cid, err := r.OpenContext("empty")
	require.NoError(t, err)

	got, err := r.ListFlags(cid, "", "\n", 64)
	require.NoError(t, err)
	assert.Equal(t, "  <none>", got)

	_, err = r.ListFlags(cid, "%q", "\n", 64)
	assert.True(t, errors.IsInvalid(err))
	_, err = r.ListFlags(ContextID(90), "", "\n", 64)
	assert.True(t, errors.IsNotFound(err))

	addFlags(t, r, "empty", "mod", "a", "b", "c")
	got, err = r.ListFlags(cid, "", "\n", 16)
	assert.True(t, errors.IsOverflow(err))
	assert.Len(t, got, 16)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestListFlagsRejectsUnboundedRequests(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	cid, _ := addFlags(t, r, "app", "net", "rx")

	_, err := r.ListFlags(cid, "%4000000000f", "\n", 64)
	assert.True(t, errors.IsInvalid(err), "huge width: %v", err)

	_, err = r.ListFlags(cid, "", "\n", -1)
	assert.True(t, errors.IsInvalid(err), "negative size: %v", err)

	got, err := r.ListFlags(cid, "%1024f", "\n", 64)
	assert.True(t, errors.IsOverflow(err))
	assert.Len(t, got, 64)
}
