package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*RunLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
	return l, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRunLogger_AttributesAndLevels(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	scoped := l.WithComponent("engine").WithRun("run-1").WithContext("participants", 3)

	scoped.Debug("hidden")
	scoped.Info("round started", "round", 2)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "round started", lines[0]["msg"])
	assert.Equal(t, "engine", lines[0]["component"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.EqualValues(t, 3, lines[0]["participants"])
	assert.EqualValues(t, 2, lines[0]["round"])
}

func TestRunLogger_WithDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	_ = l.WithContext("k", "v")
	l.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["k"]
	assert.False(t, ok)
}

func TestRunLogger_BackendCallAndRelease(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.LogBackendCall("invoke", "planner", time.Millisecond, nil)
	l.LogBackendCall("delete", "editor", time.Millisecond, errors.New("gone"))
	l.LogRelease(3, 1, false)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Backend call failed", lines[0]["msg"])
	assert.Equal(t, "gone", lines[0]["error"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.EqualValues(t, 1, lines[1]["failures"])
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("DEBUG")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, ok = ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, LogLevelWarn, lvl)

	lvl, ok = ParseLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, LogLevelInfo, lvl)
	assert.Equal(t, "ERROR", LogLevelError.String())
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
	})
}
