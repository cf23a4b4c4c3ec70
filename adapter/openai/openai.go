// Package openai adapts vendor-neutral agents to the OpenAI Chat Completions
// API. Agents become base ChatCompletionNewParams (model, sampling, system
// message, tool definitions); Run executes tool calls until the model
// answers with text.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// ChatCompleter is the part of the chat completions service the converter uses.
type ChatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

var _ ChatCompleter = (*openai.ChatCompletionService)(nil)

// Options configures the converter.
type Options struct {
	// Client serves all calls when set. Otherwise one is created on first
	// use from APIKey, the agent's model key or OPENAI_API_KEY.
	Client ChatCompleter
	APIKey string
	// BaseURL points the default client at an OpenAI compatible endpoint.
	BaseURL             string
	DefaultModel        string
	Temperature         float64
	MaxCompletionTokens int64
	MaxToolRounds       int
	Cache               *adapter.Cache[*Agent]
	// Logger (defaults to NoOpLogger if nil)
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// Agent is the OpenAI rendition of a core.Agent.
type Agent struct {
	Source *core.Agent
	// Params holds everything except the conversation turns.
	Params openai.ChatCompletionNewParams
	// System is prepended to every conversation when set.
	System string
}

// Converter translates core objects into OpenAI shapes and runs them.
type Converter struct {
	opts    Options
	logger  logging.Logger
	clients *adapter.Cache[ChatCompleter]
}

var _ adapter.Runner = (*Converter)(nil)

// New creates a converter.
func New(optFns ...func(o *Options)) *Converter {
	opts := Options{
		DefaultModel:        openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		MaxToolRounds:       adapter.DefaultMaxToolRounds,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Cache == nil {
		opts.Cache = adapter.NewCache[*Agent]()
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = adapter.DefaultMaxToolRounds
	}
	return &Converter{
		opts:    opts,
		logger:  logging.OrNoOp(opts.Logger),
		clients: adapter.NewCache[ChatCompleter](),
	}
}

// Vendor implements adapter.Runner.
func (c *Converter) Vendor() string { return adapter.VendorOpenAI }

// Tool converts t into a function tool definition.
func (c *Converter) Tool(t core.Tool) openai.ChatCompletionToolParam {
	c.opts.Metrics.Converted(c.Vendor(), "tool")
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String(adapter.DescriptionOr(t)),
			Parameters:  t.Parameters(),
		},
	}
}

// Model returns base params carrying m's model and sampling settings.
func (c *Converter) Model(m core.Model) openai.ChatCompletionNewParams {
	c.opts.Metrics.Converted(c.Vendor(), "model")

	temp := m.TemperatureOr(c.opts.Temperature)
	maxTokens := c.opts.MaxCompletionTokens
	if m.MaxTokens > 0 {
		maxTokens = int64(m.MaxTokens)
	}

	return openai.ChatCompletionNewParams{
		Model:               m.NameOr(c.opts.DefaultModel),
		Temperature:         openai.Float(temp),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
}

// Agent converts a (cached by ID).
func (c *Converter) Agent(a *core.Agent) (*Agent, error) {
	if err := adapter.CheckProvider(a.Model, core.ProviderOpenAI); err != nil {
		return nil, err
	}
	ag, hit, err := c.opts.Cache.GetOrCreate(adapter.AgentKey(a), func() (*Agent, error) {
		params := c.Model(a.Model)
		if len(a.Tools) > 0 {
			tools := make([]openai.ChatCompletionToolParam, len(a.Tools))
			for i, t := range a.Tools {
				tools[i] = c.Tool(t)
			}
			params.Tools = tools
		}
		c.opts.Metrics.Converted(c.Vendor(), "agent")
		return &Agent{Source: a, Params: params, System: a.SystemPrompt}, nil
	})
	if hit {
		c.opts.Metrics.CacheHit(c.Vendor())
	}
	return ag, err
}

// Prompt renders p with vars into a user message.
func (c *Converter) Prompt(p core.Prompt, vars map[string]any) (openai.ChatCompletionMessageParamUnion, error) {
	text, err := p.Render(vars)
	if err != nil {
		return openai.ChatCompletionMessageParamUnion{}, err
	}
	return openai.UserMessage(text), nil
}

// Run implements adapter.Runner.
func (c *Converter) Run(ctx context.Context, a *core.Agent, query string, data map[string]any) (string, error) {
	ag, err := c.Agent(a)
	if err != nil {
		return "", err
	}
	return c.RunAgent(ctx, ag, query, data)
}

var errNoChoices = errors.New("openai: no choices returned")

// RunAgent answers query with ag, executing requested tool calls between
// completions.
func (c *Converter) RunAgent(ctx context.Context, ag *Agent, query string, data map[string]any) (out string, err error) {
	start := time.Now()
	defer func() { adapter.ObserveRun(c.logger, c.opts.Metrics, c.Vendor(), ag.Params.Model, start, err) }()

	client, err := c.client(ag.Source.Model.APIKey)
	if err != nil {
		return "", err
	}

	prompt, err := adapter.BuildQuery(query, data)
	if err != nil {
		return "", err
	}

	ctx = logging.WithLogger(ctx, c.logger)
	params := ag.Params
	var messages []openai.ChatCompletionMessageParamUnion
	if ag.System != "" {
		messages = append(messages, openai.SystemMessage(ag.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	for round := 0; ; round++ {
		params.Messages = messages

		resp, err := client.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai api error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errNoChoices
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		if round >= c.opts.MaxToolRounds {
			return "", fmt.Errorf("openai: %w (%d)", adapter.ErrMaxToolRounds, c.opts.MaxToolRounds)
		}

		messages = append(messages, msg.ToParam())
		for _, tc := range msg.ToolCalls {
			messages = append(messages, openai.ToolMessage(c.callTool(ctx, ag, tc), tc.ID))
		}
	}
}

func (c *Converter) callTool(ctx context.Context, ag *Agent, tc openai.ChatCompletionMessageToolCall) string {
	args, err := adapter.ParseArguments(tc.Function.Arguments)
	if err != nil {
		return adapter.ResultString(map[string]any{"error": err.Error()})
	}
	res, _ := adapter.CallTool(ctx, ag.Source, tc.Function.Name, args)
	return adapter.ResultString(res)
}

// Handoff delegates query from src to target through ch.
func (c *Converter) Handoff(ctx context.Context, ch *channel.Channel, src, target *core.Agent, query string, data map[string]any) (string, error) {
	return adapter.Handoff(ctx, c, ch, src, target, query, data, func(o *adapter.HandoffOptions) {
		o.Logger = c.logger
		o.Metrics = c.opts.Metrics
	})
}

func (c *Converter) client(agentKey string) (ChatCompleter, error) {
	if c.opts.Client != nil {
		return c.opts.Client, nil
	}

	key := c.opts.APIKey
	if key == "" {
		key = agentKey
	}
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("openai: %w: no API key configured", adapter.ErrMissingDependency)
	}

	cc, _, err := c.clients.GetOrCreate(key, func() (ChatCompleter, error) {
		reqOpts := []option.RequestOption{option.WithAPIKey(key)}
		if c.opts.BaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(c.opts.BaseURL))
		}
		client := openai.NewClient(reqOpts...)
		return &client.Chat.Completions, nil
	})

	return cc, err
}
