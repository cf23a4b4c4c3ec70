package tool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
)

type sumArgs struct {
	A float64 `json:"a" description:"First addend"`
	B float64 `json:"b" description:"Second addend"`
}

func sumTool() *FunctionTool {
	return NewFunctionToolFromStruct("sum", "Add two numbers", sumArgs{},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})
}

// -------------------- FunctionTool --------------------

func TestFunctionTool_Metadata(t *testing.T) {
	ft := sumTool()
	assert.Equal(t, "sum", ft.Name())
	assert.Equal(t, "Add two numbers", ft.Description())

	props, ok := ft.Parameters()["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
}

func TestFunctionTool_NilParametersDefaultsToEmptyObject(t *testing.T) {
	ft := NewFunctionTool("noop", "does nothing", nil, func(context.Context, map[string]any) (any, error) {
		return "ok", nil
	})
	assert.Equal(t, "object", ft.Parameters()["type"])

	res, err := ft.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}

func TestFunctionTool_Call(t *testing.T) {
	res, err := sumTool().Call(context.Background(), map[string]any{"a": 2.0, "b": 3.5})
	require.NoError(t, err)
	assert.Equal(t, 5.5, res)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	_, err := sumTool().Call(context.Background(), map[string]any{"a": 2.0})
	require.Error(t, err)

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, CodeValidation, te.Code)
	assert.Equal(t, "sum", te.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	ft := NewFunctionTool("boom", "fails", nil, func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("kaboom")
	})

	_, err := ft.Call(context.Background(), map[string]any{})
	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, CodeExecution, te.Code)
	assert.Equal(t, "kaboom", te.Message)
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	orig := NewToolError("inner", "custom", "CUSTOM")
	ft := NewFunctionTool("wrap", "forwards", nil, func(context.Context, map[string]any) (any, error) {
		return nil, orig
	})

	_, err := ft.Call(context.Background(), map[string]any{})
	assert.Same(t, orig, err)
	assert.Equal(t, "tool error [CUSTOM] in inner: custom", err.Error())
}

func TestFunctionTool_Concurrent(t *testing.T) {
	ft := sumTool()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := ft.Call(context.Background(), map[string]any{"a": float64(i), "b": 1.0})
			assert.NoError(t, err)
			assert.Equal(t, float64(i)+1, res)
		}(i)
	}
	wg.Wait()
}

func TestToolError_WithoutCode(t *testing.T) {
	err := &ToolError{Tool: "x", Message: "bad"}
	assert.Equal(t, "tool error in x: bad", err.Error())
}

// -------------------- Mailbox tools --------------------

func TestSendMessageTool(t *testing.T) {
	ch := channel.New()
	send := NewSendMessageTool(ch, "planner")

	res, err := send.Call(context.Background(), map[string]any{
		"recipient": "writer",
		"content":   "draft the intro",
	})
	require.NoError(t, err)

	out := res.(map[string]any)
	assert.Equal(t, true, out["sent"])
	assert.Equal(t, "writer", out["recipient"])

	msgs, err := ch.Receive(context.Background(), "writer")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, out["message_id"], msgs[0].ID())
	assert.Equal(t, "planner", msgs[0].SenderID())
	assert.Equal(t, "draft the intro", msgs[0].Content())
	assert.Equal(t, core.MessageTypeText, msgs[0].Type())
}

func TestSendMessageTool_CustomType(t *testing.T) {
	ch := channel.New()
	_, err := NewSendMessageTool(ch, "a").Call(context.Background(), map[string]any{
		"recipient": "b", "content": "done", "type": core.MessageTypeResult,
	})
	require.NoError(t, err)

	msgs, err := ch.Receive(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.MessageTypeResult, msgs[0].Type())
}

func TestSendMessageTool_Validation(t *testing.T) {
	send := NewSendMessageTool(channel.New(), "a")

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing recipient", map[string]any{"content": "x"}},
		{"empty recipient", map[string]any{"recipient": "", "content": "x"}},
		{"non-string content", map[string]any{"recipient": "b", "content": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := send.Call(context.Background(), tt.args)
			var te *ToolError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, CodeValidation, te.Code)
		})
	}
}

func TestReadInboxTool_UnserializableContent(t *testing.T) {
	ch := channel.New()
	ctx := context.Background()

	_, err := ch.Send(ctx, core.NewMessage("lead", "worker", 42))
	require.NoError(t, err)
	_, err = ch.Send(ctx, core.NewMessage("lead", "worker", "please review"))
	require.NoError(t, err)

	res, err := NewReadInboxTool(ch, "worker").Call(ctx, map[string]any{})
	require.NoError(t, err)
	out := res.(map[string]any)
	require.Equal(t, 2, out["count"])

	msgs := out["messages"].([]map[string]any)
	assert.Equal(t, "42", msgs[0]["content"])
	assert.Contains(t, msgs[0]["error"], "unsupported")
	assert.Equal(t, "please review", msgs[1]["content"])
	assert.NotContains(t, msgs[1], "error")
}

func TestReadInboxTool(t *testing.T) {
	ch := channel.New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, body := range []string{"first", "second"} {
		ts := base.Add(time.Duration(i) * time.Second)
		_, err := ch.Send(ctx, core.NewMessage("a", "b", body, func(o *core.MessageOptions) {
			o.Timestamp = ts
		}))
		require.NoError(t, err)
	}

	read := NewReadInboxTool(ch, "b")

	res, err := read.Call(ctx, map[string]any{})
	require.NoError(t, err)
	out := res.(map[string]any)
	assert.Equal(t, 2, out["count"])

	res, err = read.Call(ctx, map[string]any{"since": base.Format(time.RFC3339Nano)})
	require.NoError(t, err)
	out = res.(map[string]any)
	require.Equal(t, 1, out["count"])
	msgs := out["messages"].([]map[string]any)
	assert.Equal(t, "second", msgs[0]["content"])

	_, err = read.Call(ctx, map[string]any{"since": "yesterday"})
	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, CodeValidation, te.Code)
}

// -------------------- Builtins --------------------

func TestBuiltin(t *testing.T) {
	ch := channel.New()
	deps := BuiltinDeps{Channel: ch, AgentID: "me"}

	for _, name := range BuiltinNames() {
		tl, err := Builtin(name, deps)
		require.NoError(t, err, name)
		assert.Equal(t, name, tl.Name())
	}

	_, err := Builtin("nope", deps)
	assert.Error(t, err)

	_, err = Builtin("send_message", BuiltinDeps{})
	assert.Error(t, err)
}

func TestCurrentTimeTool(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ct := NewCurrentTimeTool(func() time.Time { return fixed })

	res, err := ct.Call(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T12:00:00Z", res.(map[string]any)["time"])

	_, err = ct.Call(context.Background(), map[string]any{"timezone": "Not/AZone"})
	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, CodeExecution, te.Code)
}
