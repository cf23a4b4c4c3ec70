// Package genai adapts vendor-neutral agents to the Google GenAI SDK
// (google.golang.org/genai). Tools become function declarations, models
// become a model name plus GenerateContentConfig, and Run drives a bounded
// function calling loop against the agent's tools.
package genai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// DefaultModel is used when an agent's model has no name.
const DefaultModel = "gemini-2.5-flash"

// ContentGenerator is the part of *genai.Models the converter calls.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ ContentGenerator = (*genai.Models)(nil)

// Options configures the converter.
type Options struct {
	// Generator serves all calls when set. Otherwise a client is created on
	// first use from APIKey, the agent's model key, or GOOGLE_API_KEY /
	// GEMINI_API_KEY.
	Generator ContentGenerator
	APIKey    string
	// DefaultModel applies to agents without a model name.
	DefaultModel string
	// MaxToolRounds bounds function calling rounds per run.
	MaxToolRounds int
	// Cache holds converted agents (defaults to a private cache).
	Cache *adapter.Cache[*Agent]
	// Logger (defaults to NoOpLogger if nil)
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// Agent is the GenAI rendition of a core.Agent.
type Agent struct {
	Source *core.Agent
	Model  string
	Config *genai.GenerateContentConfig
}

// Converter translates core objects into GenAI shapes and runs them.
type Converter struct {
	opts    Options
	logger  logging.Logger
	clients *adapter.Cache[ContentGenerator]
}

var _ adapter.Runner = (*Converter)(nil)

// New creates a converter.
func New(optFns ...func(o *Options)) *Converter {
	opts := Options{
		DefaultModel:  DefaultModel,
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
		clients: adapter.NewCache[ContentGenerator](),
	}
}

// Vendor implements adapter.Runner.
func (c *Converter) Vendor() string { return adapter.VendorGenAI }

// Tool converts t into a function declaration using its JSON schema as-is.
func (c *Converter) Tool(t core.Tool) *genai.FunctionDeclaration {
	c.opts.Metrics.Converted(c.Vendor(), "tool")
	return &genai.FunctionDeclaration{
		Name:                 t.Name(),
		Description:          adapter.DescriptionOr(t),
		ParametersJsonSchema: t.Parameters(),
	}
}

// Model returns the model name and base generation config for m.
func (c *Converter) Model(m core.Model) (string, *genai.GenerateContentConfig) {
	c.opts.Metrics.Converted(c.Vendor(), "model")

	cfg := &genai.GenerateContentConfig{}
	if m.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*m.Temperature))
	}
	if m.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(m.MaxTokens)
	}
	return m.NameOr(c.opts.DefaultModel), cfg
}

// Agent converts a (cached by ID).
func (c *Converter) Agent(a *core.Agent) (*Agent, error) {
	if err := adapter.CheckProvider(a.Model, core.ProviderGoogle); err != nil {
		return nil, err
	}
	ag, hit, err := c.opts.Cache.GetOrCreate(adapter.AgentKey(a), func() (*Agent, error) {
		name, cfg := c.Model(a.Model)
		if a.SystemPrompt != "" {
			cfg.SystemInstruction = genai.NewContentFromText(a.SystemPrompt, genai.RoleUser)
		}
		if len(a.Tools) > 0 {
			decls := make([]*genai.FunctionDeclaration, 0, len(a.Tools))
			for _, t := range a.Tools {
				decls = append(decls, c.Tool(t))
			}
			cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		}
		c.opts.Metrics.Converted(c.Vendor(), "agent")
		return &Agent{Source: a, Model: name, Config: cfg}, nil
	})
	if hit {
		c.opts.Metrics.CacheHit(c.Vendor())
	}
	return ag, err
}

// Prompt renders p with vars into user content.
func (c *Converter) Prompt(p core.Prompt, vars map[string]any) (*genai.Content, error) {
	text, err := p.Render(vars)
	if err != nil {
		return nil, err
	}
	return genai.NewContentFromText(text, genai.RoleUser), nil
}

// Run implements adapter.Runner.
func (c *Converter) Run(ctx context.Context, a *core.Agent, query string, data map[string]any) (string, error) {
	ag, err := c.Agent(a)
	if err != nil {
		return "", err
	}
	return c.RunAgent(ctx, ag, query, data)
}

// RunAgent sends query (with data as context) to ag and returns the first
// candidate's text once the model stops calling tools.
func (c *Converter) RunAgent(ctx context.Context, ag *Agent, query string, data map[string]any) (out string, err error) {
	start := time.Now()
	defer func() { adapter.ObserveRun(c.logger, c.opts.Metrics, c.Vendor(), ag.Model, start, err) }()

	gen, err := c.generator(ctx, ag.Source.Model.APIKey)
	if err != nil {
		return "", err
	}

	prompt, err := adapter.BuildQuery(query, data)
	if err != nil {
		return "", err
	}

	ctx = logging.WithLogger(ctx, c.logger)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	for round := 0; ; round++ {
		resp, err := gen.GenerateContent(ctx, ag.Model, contents, ag.Config)
		if err != nil {
			return "", fmt.Errorf("genai: generate content: %w", err)
		}

		content, err := firstCandidate(resp)
		if err != nil {
			return "", err
		}

		calls := functionCalls(content)
		if len(calls) == 0 {
			return text(content), nil
		}
		if round >= c.opts.MaxToolRounds {
			return "", fmt.Errorf("genai: %w (%d)", adapter.ErrMaxToolRounds, c.opts.MaxToolRounds)
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			res, _ := adapter.CallTool(ctx, ag.Source, call.Name, call.Args)
			part := genai.NewPartFromFunctionResponse(call.Name, res)
			part.FunctionResponse.ID = call.ID
			parts = append(parts, part)
		}

		contents = append(contents, content, genai.NewContentFromParts(parts, genai.RoleUser))
	}
}

// Handoff delegates query from src to target through ch.
func (c *Converter) Handoff(ctx context.Context, ch *channel.Channel, src, target *core.Agent, query string, data map[string]any) (string, error) {
	return adapter.Handoff(ctx, c, ch, src, target, query, data, func(o *adapter.HandoffOptions) {
		o.Logger = c.logger
		o.Metrics = c.opts.Metrics
	})
}

func (c *Converter) generator(ctx context.Context, agentKey string) (ContentGenerator, error) {
	if c.opts.Generator != nil {
		return c.opts.Generator, nil
	}

	key := firstNonEmpty(c.opts.APIKey, agentKey, os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY"))
	if key == "" {
		return nil, fmt.Errorf("genai: %w: no API key configured", adapter.ErrMissingDependency)
	}

	gen, _, err := c.clients.GetOrCreate(key, func() (ContentGenerator, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("genai: create client: %w", err)
		}
		return client.Models, nil
	})

	return gen, err
}

var errNoCandidates = errors.New("genai: response has no candidates")

func firstCandidate(resp *genai.GenerateContentResponse) (*genai.Content, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errNoCandidates
	}
	return resp.Candidates[0].Content, nil
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, p := range content.Parts {
		if p != nil && p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

func text(content *genai.Content) string {
	var sb strings.Builder
	for _, p := range content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
