package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
)

// sendMessageTool lets an agent post a message to another agent's mailbox.
type sendMessageTool struct {
	ch     *channel.Channel
	sender string
}

// NewSendMessageTool returns a tool that sends messages on ch as sender.
func NewSendMessageTool(ch *channel.Channel, sender string) core.Tool {
	return &sendMessageTool{ch: ch, sender: sender}
}

func (t *sendMessageTool) Name() string { return "send_message" }

func (t *sendMessageTool) Description() string {
	return "Send a message to another agent by id. Use to delegate work or report results."
}

func (t *sendMessageTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipient": map[string]any{"type": "string", "description": "Target agent id"},
			"content":   map[string]any{"type": "string", "description": "Message text"},
			"type":      map[string]any{"type": "string", "description": "Optional message type, defaults to text"},
		},
		"required": []string{"recipient", "content"},
	}
}

func (t *sendMessageTool) Call(ctx context.Context, args map[string]any) (any, error) {
	recipient, ok := args["recipient"].(string)
	if !ok || recipient == "" {
		return nil, NewToolError(t.Name(), "field 'recipient' must be non-empty string", CodeValidation)
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, NewToolError(t.Name(), "field 'content' must be a string", CodeValidation)
	}
	msgType, _ := args["type"].(string)

	msg := core.NewMessage(t.sender, recipient, content, func(o *core.MessageOptions) {
		o.Type = msgType
	})
	id, err := t.ch.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send_message: %w", err)
	}
	return map[string]any{"sent": true, "message_id": id, "recipient": recipient}, nil
}
