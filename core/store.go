package core

import (
	"context"
	"time"
)

// MessageStore is the append-only log behind a channel. Implementations must
// preserve insertion order per recipient and never mutate or drop stored
// messages.
type MessageStore interface {
	// Append stores msg at the end of the log.
	Append(ctx context.Context, msg Message) error
	// List returns messages addressed to recipientID in insertion order.
	// A non-zero since keeps only messages with a timestamp strictly after it.
	List(ctx context.Context, recipientID string, since time.Time) ([]Message, error)
}
