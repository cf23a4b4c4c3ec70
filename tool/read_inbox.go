package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
)

// readInboxTool lets an agent poll its own mailbox.
type readInboxTool struct {
	ch    *channel.Channel
	owner string
}

// NewReadInboxTool returns a tool listing messages addressed to owner on ch.
func NewReadInboxTool(ch *channel.Channel, owner string) core.Tool {
	return &readInboxTool{ch: ch, owner: owner}
}

func (t *readInboxTool) Name() string { return "read_inbox" }

func (t *readInboxTool) Description() string {
	return "List messages other agents sent to you, oldest first. Pass 'since' (RFC3339) to skip ones already read."
}

func (t *readInboxTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"since": map[string]any{"type": "string", "description": "Only messages after this RFC3339 timestamp"},
		},
	}
}

func (t *readInboxTool) Call(ctx context.Context, args map[string]any) (any, error) {
	var opts []func(o *channel.ReceiveOptions)
	if s, ok := args["since"].(string); ok && s != "" {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, NewToolError(t.Name(), fmt.Sprintf("invalid since %q: %v", s, err), CodeValidation)
		}
		opts = append(opts, channel.Since(ts))
	}

	msgs, err := t.ch.Receive(ctx, t.owner, opts...)
	if err != nil {
		return nil, fmt.Errorf("read_inbox: %w", err)
	}

	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Envelope())
	}
	return map[string]any{"messages": out, "count": len(out)}, nil
}

// ensure interface compliance
var _ core.Tool = (*readInboxTool)(nil)
