// Package langchain adapts vendor-neutral agents to langchaingo. Agents
// become one-shot (MRKL) agents wrapped in an executor; core tools are
// exposed as langchaingo tools taking JSON input.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/tools"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// DefaultMaxIterations bounds the executor's reasoning steps.
const DefaultMaxIterations = 5

// LLMFactory builds the langchaingo model for an agent.
type LLMFactory func(m core.Model) (llms.Model, error)

// Options configures the converter.
type Options struct {
	// LLMFactory overrides provider based model creation.
	LLMFactory LLMFactory
	// OpenAIKey and AnthropicKey feed the default factory (falling back to
	// the agent's model key and OPENAI_API_KEY / ANTHROPIC_API_KEY).
	OpenAIKey     string
	AnthropicKey  string
	MaxIterations int
	Cache         *adapter.Cache[*Agent]
	// Logger (defaults to NoOpLogger if nil)
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// Agent is the langchaingo rendition of a core.Agent.
type Agent struct {
	Source   *core.Agent
	Executor *agents.Executor
}

// Converter translates core objects into langchaingo shapes and runs them.
type Converter struct {
	opts   Options
	logger logging.Logger
}

var _ adapter.Runner = (*Converter)(nil)

// New creates a converter.
func New(optFns ...func(o *Options)) *Converter {
	opts := Options{MaxIterations: DefaultMaxIterations}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Cache == nil {
		opts.Cache = adapter.NewCache[*Agent]()
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	c := &Converter{opts: opts, logger: logging.OrNoOp(opts.Logger)}
	if c.opts.LLMFactory == nil {
		c.opts.LLMFactory = c.providerLLM
	}
	return c
}

// Vendor implements adapter.Runner.
func (c *Converter) Vendor() string { return adapter.VendorLangChain }

// Tool exposes t as a langchaingo tool.
func (c *Converter) Tool(t core.Tool) tools.Tool {
	c.opts.Metrics.Converted(c.Vendor(), "tool")
	return &lcTool{tool: t, logger: c.logger}
}

// Model builds the langchaingo model for m with its sampling settings
// applied to every call.
func (c *Converter) Model(m core.Model) (llms.Model, error) {
	llm, err := c.opts.LLMFactory(m)
	if err != nil {
		return nil, err
	}
	c.opts.Metrics.Converted(c.Vendor(), "model")

	var defaults []llms.CallOption
	if m.Temperature != nil {
		defaults = append(defaults, llms.WithTemperature(*m.Temperature))
	}
	if m.MaxTokens > 0 {
		defaults = append(defaults, llms.WithMaxTokens(m.MaxTokens))
	}
	if len(defaults) == 0 {
		return llm, nil
	}
	return &defaultsLLM{Model: llm, defaults: defaults}, nil
}

// Agent converts a into a one-shot agent executor (cached by ID).
func (c *Converter) Agent(a *core.Agent) (*Agent, error) {
	ag, hit, err := c.opts.Cache.GetOrCreate(adapter.AgentKey(a), func() (*Agent, error) {
		llm, err := c.Model(a.Model)
		if err != nil {
			return nil, err
		}

		lcTools := make([]tools.Tool, len(a.Tools))
		for i, t := range a.Tools {
			lcTools[i] = c.Tool(t)
		}

		opts := []agents.Option{agents.WithMaxIterations(c.opts.MaxIterations)}
		if a.SystemPrompt != "" {
			opts = append(opts, agents.WithPromptPrefix(promptPrefix(a.SystemPrompt)))
		}

		exec := agents.NewExecutor(agents.NewOneShotAgent(llm, lcTools, opts...), opts...)
		c.opts.Metrics.Converted(c.Vendor(), "agent")
		return &Agent{Source: a, Executor: exec}, nil
	})
	if hit {
		c.opts.Metrics.CacheHit(c.Vendor())
	}
	return ag, err
}

// Prompt converts p into a langchaingo Go-template prompt.
func (c *Converter) Prompt(p core.Prompt, inputVars ...string) prompts.PromptTemplate {
	c.opts.Metrics.Converted(c.Vendor(), "prompt")
	return prompts.NewPromptTemplate(p.Template, inputVars)
}

// Run implements adapter.Runner.
func (c *Converter) Run(ctx context.Context, a *core.Agent, query string, data map[string]any) (string, error) {
	ag, err := c.Agent(a)
	if err != nil {
		return "", err
	}
	return c.RunAgent(ctx, ag, query, data)
}

// RunAgent runs ag's executor on query (with data as context).
func (c *Converter) RunAgent(ctx context.Context, ag *Agent, query string, data map[string]any) (out string, err error) {
	start := time.Now()
	defer func() { adapter.ObserveRun(c.logger, c.opts.Metrics, c.Vendor(), ag.Source.Model.Name, start, err) }()

	prompt, err := adapter.BuildQuery(query, data)
	if err != nil {
		return "", err
	}

	out, err = chains.Run(logging.WithLogger(ctx, c.logger), ag.Executor, prompt)
	if err != nil {
		return "", fmt.Errorf("langchain: run %s: %w", ag.Source.Name, err)
	}
	return out, nil
}

// Handoff delegates query from src to target through ch.
func (c *Converter) Handoff(ctx context.Context, ch *channel.Channel, src, target *core.Agent, query string, data map[string]any) (string, error) {
	return adapter.Handoff(ctx, c, ch, src, target, query, data, func(o *adapter.HandoffOptions) {
		o.Logger = c.logger
		o.Metrics = c.opts.Metrics
	})
}

func (c *Converter) providerLLM(m core.Model) (llms.Model, error) {
	switch m.Provider {
	case core.ProviderOpenAI, "":
		key := firstNonEmpty(c.opts.OpenAIKey, m.APIKey, os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("langchain: %w: no OpenAI API key configured", adapter.ErrMissingDependency)
		}
		opts := []openai.Option{openai.WithToken(key)}
		if m.Name != "" {
			opts = append(opts, openai.WithModel(m.Name))
		}
		return openai.New(opts...)
	case core.ProviderAnthropic:
		key := firstNonEmpty(c.opts.AnthropicKey, m.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("langchain: %w: no Anthropic API key configured", adapter.ErrMissingDependency)
		}
		opts := []anthropic.Option{anthropic.WithToken(key)}
		if m.Name != "" {
			opts = append(opts, anthropic.WithModel(m.Name))
		}
		return anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("langchain: %w: %q", adapter.ErrUnsupportedProvider, m.Provider)
	}
}

// promptPrefix builds the MRKL prefix: the system prompt, escaped for Go
// templates, followed by the tool listing placeholder the agent fills in.
func promptPrefix(system string) string {
	escaped := strings.ReplaceAll(system, "{{", `{{"{{"}}`)
	return escaped + "\n\nYou have access to the following tools:\n\n{{.tool_descriptions}}"
}

// lcTool exposes a core.Tool to langchaingo. Input is a JSON object matching
// the tool schema; plain text is passed as {"input": text}. Failures are
// returned as text so the agent can react instead of aborting.
type lcTool struct {
	tool   core.Tool
	logger logging.Logger
}

var _ tools.Tool = (*lcTool)(nil)

func (t *lcTool) Name() string { return t.tool.Name() }

func (t *lcTool) Description() string {
	desc := adapter.DescriptionOr(t.tool)
	if params := t.tool.Parameters(); len(params) > 0 {
		if b, err := json.Marshal(params); err == nil {
			desc += " Input must be a JSON object matching this schema: " + string(b)
		}
	}
	return desc
}

func (t *lcTool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	trimmed := strings.TrimSpace(input)
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil || args == nil {
		args = map[string]any{"input": trimmed}
	}

	ctx = logging.WithLogger(ctx, t.logger)
	res, err := t.tool.Call(ctx, args)
	if err != nil {
		t.logger.Warn("langchain.tool.error", "tool", t.tool.Name(), "error", err.Error())
		return "error: " + err.Error(), nil
	}

	if s, ok := res.(string); ok {
		return s, nil
	}
	return adapter.ResultString(adapter.ResultMap(res)), nil
}

// defaultsLLM prepends call options to every request.
type defaultsLLM struct {
	llms.Model
	defaults []llms.CallOption
}

func (d *defaultsLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := append(append([]llms.CallOption(nil), d.defaults...), options...)
	return d.Model.GenerateContent(ctx, messages, opts...)
}

func (d *defaultsLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, d, prompt, options...)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
