package contexa

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/adapter/adk"
	"github.com/hupe1980/contexa/adapter/anthropic"
	"github.com/hupe1980/contexa/adapter/crewai"
	"github.com/hupe1980/contexa/adapter/genai"
	"github.com/hupe1980/contexa/adapter/langchain"
	"github.com/hupe1980/contexa/adapter/openai"
	"github.com/hupe1980/contexa/channel"
	redisstore "github.com/hupe1980/contexa/channel/redis"
	"github.com/hupe1980/contexa/config"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// Runtime is a Contexa built from configuration together with the resources
// it owns.
type Runtime struct {
	*Contexa
	Config *config.Config
	Logger logging.Logger
	// Registry is non-nil when metrics are enabled.
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases owned resources such as the redis connection.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// FromConfig wires the logger, metrics, channel store and every vendor
// runner described by cfg.
func FromConfig(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Logger: logger}
	if z, ok := logger.(*logging.ZapAdapter); ok {
		rt.closers = append(rt.closers, func() error {
			_ = z.Sync()
			return nil
		})
	}

	var m *metrics.Collector
	if cfg.Metrics.Enabled {
		rt.Registry = prometheus.NewRegistry()
		m = metrics.NewCollector(rt.Registry)
	}

	chOpts := channel.Options{Name: cfg.Channel.Name, Logger: logger, Metrics: m}
	if cfg.Channel.Store == config.StoreRedis {
		rs, err := redisstore.Connect(ctx, cfg.Redis, func(o *redisstore.Options) {
			o.Channel = cfg.Channel.Name
			if cfg.Channel.KeyPrefix != "" {
				o.KeyPrefix = cfg.Channel.KeyPrefix
			}
		})
		if err != nil {
			return nil, fmt.Errorf("channel store: %w", err)
		}
		rt.closers = append(rt.closers, rs.Close)
		chOpts.Store = rs
	}
	ch := channel.New(func(o *channel.Options) { *o = chOpts })

	rt.Contexa = New(func(o *Options) {
		o.Channel = ch
		o.Logger = logger
		o.Metrics = m
		o.Runners = DefaultRunners(cfg, logger, m)
	})

	logger.Info("contexa.ready", "channel", ch.Name(), "store", cfg.Channel.Store, "vendors", rt.Vendors())
	return rt, nil
}

// DefaultRunners builds one runner per supported vendor from cfg. Clients
// are created lazily, so missing credentials only fail when a vendor is
// actually used.
func DefaultRunners(cfg *config.Config, logger logging.Logger, m *metrics.Collector) []adapter.Runner {
	v := cfg.Vendors
	return []adapter.Runner{
		genai.New(func(o *genai.Options) {
			o.APIKey = v.Google.APIKey
			if v.Google.Model != "" {
				o.DefaultModel = v.Google.Model
			}
			o.MaxToolRounds = v.MaxToolRounds
			o.Logger = logger
			o.Metrics = m
		}),
		adk.New(func(o *adk.Options) {
			o.APIKey = v.Google.APIKey
			if v.Google.Model != "" {
				o.DefaultModel = v.Google.Model
			}
			o.Logger = logger
			o.Metrics = m
		}),
		openai.New(func(o *openai.Options) {
			o.APIKey = v.OpenAI.APIKey
			o.BaseURL = v.OpenAI.BaseURL
			if v.OpenAI.Model != "" {
				o.DefaultModel = v.OpenAI.Model
			}
			o.MaxToolRounds = v.MaxToolRounds
			o.Logger = logger
			o.Metrics = m
		}),
		anthropic.New(func(o *anthropic.Options) {
			o.APIKey = v.Anthropic.APIKey
			if v.Anthropic.Model != "" {
				o.DefaultModel = anthropicsdk.Model(v.Anthropic.Model)
			}
			o.MaxToolRounds = v.MaxToolRounds
			o.Logger = logger
			o.Metrics = m
		}),
		langchain.New(func(o *langchain.Options) {
			o.OpenAIKey = v.OpenAI.APIKey
			o.AnthropicKey = v.Anthropic.APIKey
			o.MaxIterations = v.MaxToolRounds
			o.Logger = logger
			o.Metrics = m
		}),
		crewai.New(func(o *crewai.Options) {
			o.Logger = logger
			o.Metrics = m
		}),
	}
}
