package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/logging"
)

// ParseArguments decodes a model's JSON argument string. Empty input yields
// an empty map.
func ParseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("adapter: decode tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// CallTool invokes the agent tool called name with args. Missing tools and
// tool failures are reported in the returned result map instead of as an
// error, so the model can see them and recover; the error is also returned
// for logging.
func CallTool(ctx context.Context, agent *core.Agent, name string, args map[string]any) (map[string]any, error) {
	logger := logging.FromContext(ctx)

	t, ok := agent.FindTool(name)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrToolNotFound, name)
		logger.Warn("adapter.tool.not_found", "agent", agent.Name, "tool", name)
		return map[string]any{"error": err.Error()}, err
	}

	start := time.Now()
	res, err := t.Call(ctx, args)
	if sl, ok := logger.(*logging.StructuredLogger); ok {
		sl.LogToolCall(name, time.Since(start), err)
	} else {
		logger.Debug("adapter.tool.call", "agent", agent.Name, "tool", name,
			"duration_ms", time.Since(start).Milliseconds(), "ok", err == nil)
	}
	if err != nil {
		return map[string]any{"error": err.Error()}, err
	}

	return ResultMap(res), nil
}

// ResultMap shapes a tool result as a JSON object. Maps pass through; other
// values are wrapped under "result".
func ResultMap(res any) map[string]any {
	if m, ok := res.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": res}
}

// ResultString renders a tool result map as JSON text for vendors that take
// tool output as a string.
func ResultString(res map[string]any) string {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprintf("%v", res)
	}
	return string(b)
}
