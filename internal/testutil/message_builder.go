package testutil

import (
	"time"

	"github.com/hupe1980/contexa/core"
)

// Epoch is the fixed base time used by At.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// At returns Epoch shifted by sec seconds, giving tests ordered timestamps
// without sleeping.
func At(sec int) time.Time { return Epoch.Add(time.Duration(sec) * time.Second) }

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	m := NewMessageBuilder().From("A").To("B").Text("hello").At(1).Build()
//
// Each Build call yields a fresh message id unless ID was set.
type MessageBuilder struct {
	from, to  string
	content   any
	msgType   string
	id        string
	metadata  map[string]any
	timestamp time.Time
}

// NewMessageBuilder creates a builder with sender "sender" and recipient "recipient".
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{from: "sender", to: "recipient", content: ""}
}

// From sets the sender (chainable).
func (b *MessageBuilder) From(id string) *MessageBuilder { b.from = id; return b }

// To sets the recipient (chainable).
func (b *MessageBuilder) To(id string) *MessageBuilder { b.to = id; return b }

// Text sets text content (chainable).
func (b *MessageBuilder) Text(s string) *MessageBuilder { b.content = s; return b }

// Data sets mapping content (chainable).
func (b *MessageBuilder) Data(d map[string]any) *MessageBuilder { b.content = d; return b }

// Type sets the message type (chainable).
func (b *MessageBuilder) Type(t string) *MessageBuilder { b.msgType = t; return b }

// ID pins the message id (chainable).
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// Meta adds a metadata entry (chainable).
func (b *MessageBuilder) Meta(k string, v any) *MessageBuilder {
	if b.metadata == nil {
		b.metadata = map[string]any{}
	}
	b.metadata[k] = v
	return b
}

// At sets the timestamp to At(sec) (chainable).
func (b *MessageBuilder) At(sec int) *MessageBuilder { b.timestamp = At(sec); return b }

// Build constructs the message.
func (b *MessageBuilder) Build() core.Message {
	return core.NewMessage(b.from, b.to, b.content, func(o *core.MessageOptions) {
		o.Type = b.msgType
		o.ID = b.id
		o.Metadata = b.metadata
		o.Timestamp = b.timestamp
	})
}
