package testutil

import (
	"context"
	"sync"
)

// RecordingTool is a core.Tool that records its calls and returns a fixed
// result (or error).
type RecordingTool struct {
	ToolName   string
	ToolDesc   string
	Schema     map[string]any
	Result     any
	Err        error
	mu         sync.Mutex
	calledWith []map[string]any
}

// NewRecordingTool creates a tool named name returning result.
func NewRecordingTool(name string, result any) *RecordingTool {
	return &RecordingTool{
		ToolName: name,
		ToolDesc: "test tool " + name,
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"input": map[string]any{"type": "string"}},
		},
		Result: result,
	}
}

// Name implements core.Tool.
func (t *RecordingTool) Name() string { return t.ToolName }

// Description implements core.Tool.
func (t *RecordingTool) Description() string { return t.ToolDesc }

// Parameters implements core.Tool.
func (t *RecordingTool) Parameters() map[string]any { return t.Schema }

// Call implements core.Tool.
func (t *RecordingTool) Call(_ context.Context, args map[string]any) (any, error) {
	t.mu.Lock()
	t.calledWith = append(t.calledWith, args)
	t.mu.Unlock()
	return t.Result, t.Err
}

// Calls returns the argument maps received so far.
func (t *RecordingTool) Calls() []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]map[string]any(nil), t.calledWith...)
}
