// Package anthropic adapts vendor-neutral agents to the Anthropic Messages
// API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/internal/util"
	"github.com/hupe1980/contexa/logging"
)

// DefaultModel is used when an agent's model has no name.
const DefaultModel = anthropic.Model("claude-sonnet-4-0")

// MessageCreator is the part of the messages service the converter uses.
type MessageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

var _ MessageCreator = (*anthropic.MessageService)(nil)

// Options configures the converter.
type Options struct {
	// Client serves all calls when set. Otherwise one is created on first
	// use from APIKey, the agent's model key or ANTHROPIC_API_KEY.
	Client        MessageCreator
	APIKey        string
	DefaultModel  anthropic.Model
	Temperature   float64
	MaxTokens     int64
	MaxToolRounds int
	Cache         *adapter.Cache[*Agent]
	// Logger (defaults to NoOpLogger if nil)
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// Agent is the Anthropic rendition of a core.Agent: request params without
// the conversation turns.
type Agent struct {
	Source *core.Agent
	Params anthropic.MessageNewParams
}

// Converter translates core objects into Anthropic shapes and runs them.
type Converter struct {
	opts    Options
	logger  logging.Logger
	clients *adapter.Cache[MessageCreator]
}

var _ adapter.Runner = (*Converter)(nil)

// New creates a converter.
func New(optFns ...func(o *Options)) *Converter {
	opts := Options{
		DefaultModel:  DefaultModel,
		Temperature:   0.7,
		MaxTokens:     4096,
		MaxToolRounds: adapter.DefaultMaxToolRounds,
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
		clients: adapter.NewCache[MessageCreator](),
	}
}

// Vendor implements adapter.Runner.
func (c *Converter) Vendor() string { return adapter.VendorAnthropic }

// Tool converts t into a custom tool definition.
func (c *Converter) Tool(t core.Tool) anthropic.ToolUnionParam {
	c.opts.Metrics.Converted(c.Vendor(), "tool")

	inputSchema := anthropic.ToolInputSchemaParam{
		Type: constant.Object("object"),
	}
	if params := t.Parameters(); params != nil {
		if properties, exists := params["properties"]; exists {
			inputSchema.Properties = properties
		}
		inputSchema.Required = util.RequiredFields(params)
	}

	tu := anthropic.ToolUnionParamOfTool(inputSchema, t.Name())
	tu.OfTool.Description = anthropic.String(adapter.DescriptionOr(t))
	return tu
}

// Model returns base params carrying m's model and sampling settings.
func (c *Converter) Model(m core.Model) anthropic.MessageNewParams {
	c.opts.Metrics.Converted(c.Vendor(), "model")

	temp := m.TemperatureOr(c.opts.Temperature)
	maxTokens := c.opts.MaxTokens
	if m.MaxTokens > 0 {
		maxTokens = int64(m.MaxTokens)
	}

	return anthropic.MessageNewParams{
		Model:       anthropic.Model(m.NameOr(string(c.opts.DefaultModel))),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temp),
	}
}

// Agent converts a (cached by ID).
func (c *Converter) Agent(a *core.Agent) (*Agent, error) {
	if err := adapter.CheckProvider(a.Model, core.ProviderAnthropic); err != nil {
		return nil, err
	}
	ag, hit, err := c.opts.Cache.GetOrCreate(adapter.AgentKey(a), func() (*Agent, error) {
		params := c.Model(a.Model)
		if a.SystemPrompt != "" {
			params.System = []anthropic.TextBlockParam{{Text: a.SystemPrompt}}
		}
		if len(a.Tools) > 0 {
			tools := make([]anthropic.ToolUnionParam, len(a.Tools))
			for i, t := range a.Tools {
				tools[i] = c.Tool(t)
			}
			params.Tools = tools
		}
		c.opts.Metrics.Converted(c.Vendor(), "agent")
		return &Agent{Source: a, Params: params}, nil
	})
	if hit {
		c.opts.Metrics.CacheHit(c.Vendor())
	}
	return ag, err
}

// Prompt renders p with vars into a user message.
func (c *Converter) Prompt(p core.Prompt, vars map[string]any) (anthropic.MessageParam, error) {
	text, err := p.Render(vars)
	if err != nil {
		return anthropic.MessageParam{}, err
	}
	return anthropic.NewUserMessage(anthropic.NewTextBlock(text)), nil
}

// Run implements adapter.Runner.
func (c *Converter) Run(ctx context.Context, a *core.Agent, query string, data map[string]any) (string, error) {
	ag, err := c.Agent(a)
	if err != nil {
		return "", err
	}
	return c.RunAgent(ctx, ag, query, data)
}

var errEmptyResponse = errors.New("anthropic: empty response")

// RunAgent answers query with ag, executing tool_use blocks between turns.
func (c *Converter) RunAgent(ctx context.Context, ag *Agent, query string, data map[string]any) (out string, err error) {
	start := time.Now()
	defer func() { adapter.ObserveRun(c.logger, c.opts.Metrics, c.Vendor(), string(ag.Params.Model), start, err) }()

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
	messages := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))}

	for round := 0; ; round++ {
		params.Messages = messages

		resp, err := client.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic api error: %w", err)
		}
		if resp == nil || len(resp.Content) == 0 {
			return "", errEmptyResponse
		}

		var (
			text      strings.Builder
			assistant []anthropic.ContentBlockParamUnion
			results   []anthropic.ContentBlockParamUnion
		)
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.Text)
				assistant = append(assistant, anthropic.NewTextBlock(block.Text))
			case "tool_use":
				var input map[string]any
				if len(block.Input) > 0 {
					_ = json.Unmarshal(block.Input, &input)
				}
				if input == nil {
					input = map[string]any{}
				}
				assistant = append(assistant, anthropic.NewToolUseBlock(block.ID, input, block.Name))
				res, isErr := c.callTool(ctx, ag, block)
				results = append(results, anthropic.NewToolResultBlock(block.ID, res, isErr))
			}
		}

		if len(results) == 0 {
			return text.String(), nil
		}
		if round >= c.opts.MaxToolRounds {
			return "", fmt.Errorf("anthropic: %w (%d)", adapter.ErrMaxToolRounds, c.opts.MaxToolRounds)
		}

		messages = append(messages,
			anthropic.NewAssistantMessage(assistant...),
			anthropic.NewUserMessage(results...),
		)
	}
}

func (c *Converter) callTool(ctx context.Context, ag *Agent, block anthropic.ContentBlockUnion) (string, bool) {
	args, err := adapter.ParseArguments(string(block.Input))
	if err != nil {
		return adapter.ResultString(map[string]any{"error": err.Error()}), true
	}
	res, err := adapter.CallTool(ctx, ag.Source, block.Name, args)
	return adapter.ResultString(res), err != nil
}

// Handoff delegates query from src to target through ch.
func (c *Converter) Handoff(ctx context.Context, ch *channel.Channel, src, target *core.Agent, query string, data map[string]any) (string, error) {
	return adapter.Handoff(ctx, c, ch, src, target, query, data, func(o *adapter.HandoffOptions) {
		o.Logger = c.logger
		o.Metrics = c.opts.Metrics
	})
}

func (c *Converter) client(agentKey string) (MessageCreator, error) {
	if c.opts.Client != nil {
		return c.opts.Client, nil
	}

	key := c.opts.APIKey
	if key == "" {
		key = agentKey
	}
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("anthropic: %w: no API key configured", adapter.ErrMissingDependency)
	}

	mc, _, err := c.clients.GetOrCreate(key, func() (MessageCreator, error) {
		client := anthropic.NewClient(option.WithAPIKey(key))
		return &client.Messages, nil
	})

	return mc, err
}
