package tool

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
)

// BuiltinDeps carries what built-in tools may need.
type BuiltinDeps struct {
	// Channel backs the mailbox tools.
	Channel *channel.Channel
	// AgentID is the identity the mailbox tools act as.
	AgentID string
	// Now overrides the clock of current_time.
	Now func() time.Time
}

var builtins = map[string]func(d BuiltinDeps) (core.Tool, error){
	"current_time": func(d BuiltinDeps) (core.Tool, error) {
		return NewCurrentTimeTool(d.Now), nil
	},
	"send_message": func(d BuiltinDeps) (core.Tool, error) {
		if d.Channel == nil {
			return nil, fmt.Errorf("send_message requires a channel")
		}
		return NewSendMessageTool(d.Channel, d.AgentID), nil
	},
	"read_inbox": func(d BuiltinDeps) (core.Tool, error) {
		if d.Channel == nil {
			return nil, fmt.Errorf("read_inbox requires a channel")
		}
		return NewReadInboxTool(d.Channel, d.AgentID), nil
	},
}

// Builtin resolves a built-in tool by name. Agent definition files refer to
// tools this way.
func Builtin(name string, deps BuiltinDeps) (core.Tool, error) {
	factory, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin tool %q (available: %v)", name, BuiltinNames())
	}
	return factory(deps)
}

// BuiltinNames lists the registered built-in tool names.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewCurrentTimeTool returns a tool reporting the current time in an optional
// IANA timezone. now may be nil.
func NewCurrentTimeTool(now func() time.Time) *FunctionTool {
	if now == nil {
		now = time.Now
	}
	return NewFunctionTool(
		"current_time",
		"Get the current date and time, optionally in an IANA timezone such as Europe/Berlin.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"timezone": map[string]any{"type": "string", "description": "IANA timezone name"},
			},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			t := now()
			if tz, ok := args["timezone"].(string); ok && tz != "" {
				loc, err := time.LoadLocation(tz)
				if err != nil {
					return nil, fmt.Errorf("unknown timezone %q", tz)
				}
				t = t.In(loc)
			}
			return map[string]any{"time": t.Format(time.RFC3339)}, nil
		},
	)
}
