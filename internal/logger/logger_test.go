package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{VerbosityUser, zapcore.WarnLevel},
		{VerbosityInfo, zapcore.InfoLevel},
		{VerbosityDebug, zapcore.DebugLevel},
		{7, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Verbosity: VerbosityUser, Output: &buf})

	log.Infow("hidden")
	log.Warnw("bad format", "format", "%q")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "bad format")
	assert.Contains(t, out, `"format": "%q"`)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Verbosity: VerbosityDebug, JSON: true, Output: &buf})
	log.Debugw("flag set", "context", "net", "flag", "rx")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "flag set", entry["msg"])
	assert.Equal(t, "net", entry["context"])
	assert.Equal(t, "nsntrace", entry["logger"])
}

func TestNop(t *testing.T) {
	log := Nop()
	require.NotNil(t, log)
	log.Errorw("dropped")
}
