package adapter

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// Metadata keys written on handoff messages.
const (
	MetaVendor    = "vendor"
	MetaInReplyTo = "in_reply_to"
	// DataHandoffFrom is added to the target's query data.
	DataHandoffFrom = "handoff_from"
)

// HandoffOptions configures Handoff.
type HandoffOptions struct {
	// Logger (defaults to the logger in ctx)
	Logger logging.Logger
	// Metrics is optional.
	Metrics *metrics.Collector
}

// Handoff delegates query from src to target on runner.
//
// When ch is non-nil the exchange is recorded as two messages: a "handoff"
// message src->target carrying the query and data, and a "result" message
// target->src whose metadata links back to the first. The target receives
// data plus the sender's address under "handoff_from". The result text is
// returned.
func Handoff(
	ctx context.Context,
	runner Runner,
	ch *channel.Channel,
	src, target *core.Agent,
	query string,
	data map[string]any,
	optFns ...func(o *HandoffOptions),
) (string, error) {
	opts := HandoffOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	start := time.Now()
	from, to := src.Address(), target.Address()

	payload := make(map[string]any, len(data)+1)
	maps.Copy(payload, data)
	payload[DataHandoffFrom] = from

	var requestID string
	if ch != nil {
		content := map[string]any{"query": query}
		if len(data) > 0 {
			content["data"] = maps.Clone(data)
		}
		msg := core.NewMessage(from, to, content, func(o *core.MessageOptions) {
			o.Type = core.MessageTypeHandoff
			o.Metadata = map[string]any{MetaVendor: runner.Vendor()}
		})
		id, err := ch.Send(ctx, msg)
		if err != nil {
			return "", finishHandoff(logger, opts.Metrics, runner, from, to, "", start, err)
		}
		requestID = id
	}

	result, err := runner.Run(logging.WithLogger(ctx, logger), target, query, payload)
	if err != nil {
		return "", finishHandoff(logger, opts.Metrics, runner, from, to, requestID,
			start, fmt.Errorf("handoff %s -> %s: %w", from, to, err))
	}

	if ch != nil {
		reply := core.NewMessage(to, from, result, func(o *core.MessageOptions) {
			o.Type = core.MessageTypeResult
			o.Metadata = map[string]any{MetaVendor: runner.Vendor(), MetaInReplyTo: requestID}
		})
		if _, err := ch.Send(ctx, reply); err != nil {
			return "", finishHandoff(logger, opts.Metrics, runner, from, to, requestID, start, err)
		}
	}

	return result, finishHandoff(logger, opts.Metrics, runner, from, to, requestID, start, nil)
}

func finishHandoff(
	logger logging.Logger,
	m *metrics.Collector,
	runner Runner,
	from, to, messageID string,
	start time.Time,
	err error,
) error {
	m.Handoff(runner.Vendor(), err)
	if sl, ok := logger.(*logging.StructuredLogger); ok {
		sl.LogHandoff(from, to, messageID, time.Since(start), err)
		return err
	}
	if err != nil {
		logger.Error("adapter.handoff.failed", "vendor", runner.Vendor(), "from", from, "to", to, "error", err.Error())
		return err
	}
	logger.Info("adapter.handoff", "vendor", runner.Vendor(), "from", from, "to", to, "message_id", messageID)
	return nil
}
