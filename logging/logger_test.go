package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	_ Logger = (*StructuredLogger)(nil)
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*ZapAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func newBufferedLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf}), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown", "k", "v")
	l.Error("shown too")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "v", lines[0]["k"])
	assert.Equal(t, "ERROR", lines[1]["level"])
}

func TestStructuredLogger_ScopedCopies(t *testing.T) {
	base, buf := newBufferedLogger(LogLevelDebug)
	scoped := base.WithComponent("channel").WithChannel("ops").With("tenant", "t1")
	scoped.Info("send")
	base.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "channel", lines[0]["component"])
	assert.Equal(t, "ops", lines[0]["channel"])
	assert.Equal(t, "t1", lines[0]["tenant"])
	assert.NotContains(t, lines[1], "component")
	assert.NotContains(t, lines[1], "tenant")
}

func TestStructuredLogger_DomainHelpers(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)
	l.LogToolCall("get_weather", 5*time.Millisecond, nil)
	l.LogVendorCall("genai", "gemini-2.0-flash", time.Second, errors.New("boom"))
	l.LogHandoff("planner", "writer", "m-1", time.Millisecond, nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "Tool execution completed", lines[0]["msg"])
	assert.Equal(t, true, lines[0]["success"])
	assert.Equal(t, "Vendor call failed", lines[1]["msg"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "writer", lines[2]["to"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("ERROR"))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	z := NewZapAdapter(zap.New(core))
	z.Info("sent", "message_id", "m-1", "err", errors.New("x"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "m-1", fields["message_id"])
	assert.Equal(t, "x", fields["err"])
}

func TestContextLogger(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, FromContext(context.Background()))

	l, _ := newBufferedLogger(LogLevelInfo)
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
}
