// Package contexa hands context between agents built on different vendor
// SDKs. It pairs a shared message channel with one adapter.Runner per vendor
// so that an agent defined once can be run, or handed work, on any of them.
//
// Most applications:
//  1. Create a Contexa via New (or FromConfig) with the runners they need
//  2. Describe agents with core.NewAgent or config.LoadAgent
//  3. Call Run or Handoff naming the vendor to execute on
//
// Handoffs are recorded on the channel so either side can read the exchange
// back from its inbox.
package contexa

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// Options configures a Contexa instance.
type Options struct {
	// Channel carries handoff messages (defaults to an in-memory channel).
	Channel *channel.Channel
	// Runners are registered by their Vendor() name; later entries win.
	Runners []adapter.Runner
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
	// Metrics is optional.
	Metrics *metrics.Collector
}

// Contexa is the façade over a channel and the vendor runners.
type Contexa struct {
	channel *channel.Channel
	logger  logging.Logger
	metrics *metrics.Collector

	mu      sync.RWMutex
	runners map[string]adapter.Runner
}

// New creates a Contexa instance.
func New(optFns ...func(o *Options)) *Contexa {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)
	ch := opts.Channel
	if ch == nil {
		ch = channel.New(func(o *channel.Options) {
			o.Logger = logger
			o.Metrics = opts.Metrics
		})
	}

	c := &Contexa{
		channel: ch,
		logger:  logger,
		metrics: opts.Metrics,
		runners: make(map[string]adapter.Runner, len(opts.Runners)),
	}
	for _, r := range opts.Runners {
		c.Register(r)
	}
	return c
}

// Register adds or replaces the runner for r.Vendor().
func (c *Contexa) Register(r adapter.Runner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runners[r.Vendor()] = r
}

// Runner returns the runner registered for vendor.
func (c *Contexa) Runner(vendor string) (adapter.Runner, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.runners[vendor]
	if !ok {
		return nil, fmt.Errorf("%w: %q", adapter.ErrUnknownVendor, vendor)
	}
	return r, nil
}

// Vendors lists registered vendor names in sorted order.
func (c *Contexa) Vendors() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.runners))
	for n := range c.runners {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Channel returns the shared channel.
func (c *Contexa) Channel() *channel.Channel { return c.channel }

// Send posts content from one address to another and returns the message id.
func (c *Contexa) Send(ctx context.Context, from, to string, content any, msgType string) (string, error) {
	msg := core.NewMessage(from, to, content, func(o *core.MessageOptions) {
		if msgType != "" {
			o.Type = msgType
		}
	})
	return c.channel.Send(ctx, msg)
}

// Inbox returns the messages addressed to recipient.
func (c *Contexa) Inbox(ctx context.Context, recipient string, optFns ...func(o *channel.ReceiveOptions)) ([]core.Message, error) {
	return c.channel.Receive(ctx, recipient, optFns...)
}

// Run executes a on the named vendor.
func (c *Contexa) Run(ctx context.Context, vendor string, a *core.Agent, query string, data map[string]any) (string, error) {
	r, err := c.Runner(vendor)
	if err != nil {
		return "", err
	}
	return r.Run(logging.WithLogger(ctx, c.logger), a, query, data)
}

// Handoff delegates query from src to target on the named vendor and records
// the exchange on the channel.
func (c *Contexa) Handoff(ctx context.Context, vendor string, src, target *core.Agent, query string, data map[string]any) (string, error) {
	r, err := c.Runner(vendor)
	if err != nil {
		return "", err
	}
	return adapter.Handoff(ctx, r, c.channel, src, target, query, data, func(o *adapter.HandoffOptions) {
		o.Logger = c.logger
		o.Metrics = c.metrics
	})
}
