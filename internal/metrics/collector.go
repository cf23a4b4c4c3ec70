// Package metrics exposes prometheus instrumentation for channels and vendor
// adapters. A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "contexa"

// Collector holds the metric vectors. Create one per registry.
type Collector struct {
	messagesSent  *prometheus.CounterVec
	receives      *prometheus.CounterVec
	conversions   *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	handoffsTotal *prometheus.CounterVec
}

// NewCollector registers the contexa metrics on reg. Passing nil uses the
// prometheus default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "channel",
				Name:      "messages_sent_total",
				Help:      "Total number of messages appended to a channel",
			},
			[]string{"channel", "type"},
		),
		receives: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "channel",
				Name:      "receives_total",
				Help:      "Total number of receive (poll) calls",
			},
			[]string{"channel"},
		),
		conversions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "adapter",
				Name:      "conversions_total",
				Help:      "Objects converted into vendor shapes",
			},
			[]string{"vendor", "kind"},
		),
		cacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "adapter",
				Name:      "cache_hits_total",
				Help:      "Agent conversions served from the adapter cache",
			},
			[]string{"vendor"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "adapter",
				Name:      "run_duration_seconds",
				Help:      "Latency of agent runs against vendor SDKs",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"vendor", "status"},
		),
		handoffsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "adapter",
				Name:      "handoffs_total",
				Help:      "Agent-to-agent handoffs",
			},
			[]string{"vendor", "status"},
		),
	}
}

// MessageSent counts an appended message.
func (c *Collector) MessageSent(channel, msgType string) {
	if c == nil {
		return
	}
	c.messagesSent.WithLabelValues(channel, msgType).Inc()
}

// Received counts a receive call.
func (c *Collector) Received(channel string) {
	if c == nil {
		return
	}
	c.receives.WithLabelValues(channel).Inc()
}

// Converted counts a conversion of kind (tool, model, agent, prompt).
func (c *Collector) Converted(vendor, kind string) {
	if c == nil {
		return
	}
	c.conversions.WithLabelValues(vendor, kind).Inc()
}

// CacheHit counts an agent served from cache.
func (c *Collector) CacheHit(vendor string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(vendor).Inc()
}

// ObserveRun records the duration of a vendor run.
func (c *Collector) ObserveRun(vendor string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.runDuration.WithLabelValues(vendor, status(err)).Observe(d.Seconds())
}

// Handoff counts a completed or failed handoff.
func (c *Collector) Handoff(vendor string, err error) {
	if c == nil {
		return
	}
	c.handoffsTotal.WithLabelValues(vendor, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
