package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// DefaultName is the name given to channels created without one.
const DefaultName = "default"

// Options configures a Channel.
type Options struct {
	// Name identifies the channel in logs, metrics and storage keys.
	Name string
	// Store holds the messages (defaults to an InMemoryStore).
	Store core.MessageStore
	// Logger (defaults to NoOpLogger if nil)
	Logger logging.Logger
	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Collector
}

// Channel is a named mailbox shared by many senders and receivers.
type Channel struct {
	name    string
	store   core.MessageStore
	logger  logging.Logger
	metrics *metrics.Collector
}

// New creates an empty channel.
func New(optFns ...func(o *Options)) *Channel {
	opts := Options{Name: DefaultName}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Store == nil {
		opts.Store = NewInMemoryStore()
	}
	return &Channel{
		name:    opts.Name,
		store:   opts.Store,
		logger:  logging.OrNoOp(opts.Logger),
		metrics: opts.Metrics,
	}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Send appends msg to the channel and returns its id. There is no capacity
// bound and no duplicate-id detection.
func (c *Channel) Send(ctx context.Context, msg core.Message) (string, error) {
	if err := c.store.Append(ctx, msg); err != nil {
		c.logger.Error("channel.send.failed", "channel", c.name, "message_id", msg.ID(), "error", err.Error())
		return "", fmt.Errorf("channel %s: send %s: %w", c.name, msg.ID(), err)
	}

	c.metrics.MessageSent(c.name, msg.Type())
	c.logger.Debug("channel.send", "channel", c.name, "message_id", msg.ID(),
		"from", msg.SenderID(), "to", msg.RecipientID(), "type", msg.Type())

	return msg.ID(), nil
}

// ReceiveOptions filters Receive results.
type ReceiveOptions struct {
	// Since keeps only messages with a timestamp strictly after it. Zero
	// disables the filter.
	Since time.Time
}

// Since is a Receive option restricting results to messages newer than t.
func Since(t time.Time) func(o *ReceiveOptions) {
	return func(o *ReceiveOptions) { o.Since = t }
}

// Receive returns every message addressed to recipientID in send order. It
// never removes messages; an unknown recipient yields an empty slice.
func (c *Channel) Receive(ctx context.Context, recipientID string, optFns ...func(o *ReceiveOptions)) ([]core.Message, error) {
	var opts ReceiveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	msgs, err := c.store.List(ctx, recipientID, opts.Since)
	if err != nil {
		return nil, fmt.Errorf("channel %s: receive for %s: %w", c.name, recipientID, err)
	}

	c.metrics.Received(c.name)
	c.logger.Debug("channel.receive", "channel", c.name, "recipient", recipientID, "count", len(msgs))

	return msgs, nil
}
