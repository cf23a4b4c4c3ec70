package core

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Well known message types. Message.Type is free-form; these are the values
// produced by the adapters and tools in this module.
const (
	MessageTypeText    = "text"
	MessageTypeResult  = "result"
	MessageTypeHandoff = "handoff"
)

// Record is implemented by structured content that knows how to flatten
// itself into a mapping for serialization.
type Record interface {
	AsMap() (map[string]any, error)
}

// MessageOptions configures NewMessage.
type MessageOptions struct {
	// Type classifies the message ("text" when empty).
	Type string
	// Metadata is copied into the message; nil yields an empty map.
	Metadata map[string]any
	// ID overrides the generated identifier.
	ID string
	// Timestamp overrides the creation time. Intended for decoding stored
	// messages; zero means time.Now().UTC().
	Timestamp time.Time
}

// Message is a single unit of agent-to-agent communication. All fields are
// fixed at construction; accessors return copies where mutation would be
// possible.
type Message struct {
	id          string
	senderID    string
	recipientID string
	content     any
	msgType     string
	metadata    map[string]any
	timestamp   time.Time
}

// NewMessage creates a message from sender to recipient. Identifiers are not
// validated against any registry.
func NewMessage(senderID, recipientID string, content any, optFns ...func(o *MessageOptions)) Message {
	opts := MessageOptions{Type: MessageTypeText}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Type == "" {
		opts.Type = MessageTypeText
	}
	if opts.ID == "" {
		opts.ID = NewID()
	}
	if opts.Timestamp.IsZero() {
		opts.Timestamp = time.Now().UTC()
	}

	md := make(map[string]any, len(opts.Metadata))
	for k, v := range opts.Metadata {
		md[k] = v
	}

	return Message{
		id:          opts.ID,
		senderID:    senderID,
		recipientID: recipientID,
		content:     content,
		msgType:     opts.Type,
		metadata:    md,
		timestamp:   opts.Timestamp,
	}
}

// NewID generates a new unique identifier.
func NewID() string { return uuid.NewString() }

// ID returns the message identifier.
func (m Message) ID() string { return m.id }

// SenderID returns the sending agent identifier.
func (m Message) SenderID() string { return m.senderID }

// RecipientID returns the receiving agent identifier.
func (m Message) RecipientID() string { return m.recipientID }

// Content returns the payload exactly as supplied.
func (m Message) Content() any { return m.content }

// Type returns the message classifier.
func (m Message) Type() string { return m.msgType }

// Timestamp returns the UTC creation time.
func (m Message) Timestamp() time.Time { return m.timestamp }

// Metadata returns a shallow copy of the metadata map.
func (m Message) Metadata() map[string]any {
	md := make(map[string]any, len(m.metadata))
	for k, v := range m.metadata {
		md[k] = v
	}
	return md
}

// Text returns the content when it is a string.
func (m Message) Text() (string, bool) {
	s, ok := m.content.(string)
	return s, ok
}

// Serialize converts the message into a plain mapping suitable for logging
// or transport. Text and map content are kept as-is, Records are flattened
// through AsMap and structs through their JSON field names. Any other
// content type yields ErrUnsupportedContent.
func (m Message) Serialize() (map[string]any, error) {
	content, err := contentToMap(m.content)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", m.id, err)
	}
	return map[string]any{
		"message_id":   m.id,
		"sender_id":    m.senderID,
		"recipient_id": m.recipientID,
		"content":      content,
		"message_type": m.msgType,
		"metadata":     m.Metadata(),
		"timestamp":    m.timestamp.Format(time.RFC3339Nano),
	}, nil
}

// Envelope is Serialize for display and tool output. When the content cannot
// be serialized the envelope still carries the other fields, the content as
// fmt.Sprint text and the reason under "error".
func (m Message) Envelope() map[string]any {
	sm, err := m.Serialize()
	if err == nil {
		return sm
	}
	return map[string]any{
		"message_id":   m.id,
		"sender_id":    m.senderID,
		"recipient_id": m.recipientID,
		"content":      fmt.Sprint(m.content),
		"message_type": m.msgType,
		"metadata":     m.Metadata(),
		"timestamp":    m.timestamp.Format(time.RFC3339Nano),
		"error":        err.Error(),
	}
}

func contentToMap(c any) (any, error) {
	switch v := c.(type) {
	case string:
		return v, nil
	case map[string]any:
		return v, nil
	case Record:
		return v.AsMap()
	case nil:
		return nil, fmt.Errorf("%w: <nil>", ErrUnsupportedContent)
	}

	rt := reflect.TypeOf(c)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedContent, c)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrUnsupportedContent, c, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrUnsupportedContent, c, err)
	}
	return out, nil
}

// MessageFromMap rebuilds a message from the Serialize form. Structured
// content comes back as map[string]any.
func MessageFromMap(m map[string]any) (Message, error) {
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}

	id := str("message_id")
	if id == "" {
		return Message{}, fmt.Errorf("%w: missing message_id", ErrInvalidMessage)
	}

	ts, err := time.Parse(time.RFC3339Nano, str("timestamp"))
	if err != nil {
		return Message{}, fmt.Errorf("%w: timestamp: %v", ErrInvalidMessage, err)
	}

	md, _ := m["metadata"].(map[string]any)

	return NewMessage(str("sender_id"), str("recipient_id"), m["content"], func(o *MessageOptions) {
		o.ID = id
		o.Type = str("message_type")
		o.Metadata = md
		o.Timestamp = ts.UTC()
	}), nil
}

// MarshalJSON encodes the Serialize form.
func (m Message) MarshalJSON() ([]byte, error) {
	sm, err := m.Serialize()
	if err != nil {
		return nil, err
	}
	return json.Marshal(sm)
}

// UnmarshalJSON decodes a message previously encoded with MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := MessageFromMap(raw)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}
