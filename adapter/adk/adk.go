// Package adk adapts vendor-neutral agents to the Google Agent Development
// Kit (google.golang.org/adk). Agents become llmagent instances backed by a
// Gemini model; tools become function tools whose handlers call the core
// tool; runs go through an ADK runner with an in-memory session.
package adk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

const (
	// DefaultModel is used when an agent's model has no name.
	DefaultModel = "gemini-2.5-flash"
	// DefaultAppName scopes ADK sessions created by the converter.
	DefaultAppName = "contexa"
	defaultUserID  = "contexa"
)

// ModelFactory builds the ADK model for an agent.
type ModelFactory func(ctx context.Context, m core.Model) (model.LLM, error)

// Executor runs a converted agent on a single query.
type Executor interface {
	Execute(ctx context.Context, a agent.Agent, query string) (string, error)
}

// Options configures the converter.
type Options struct {
	// ModelFactory overrides Gemini model creation.
	ModelFactory ModelFactory
	// Executor overrides the default in-memory session runner.
	Executor Executor
	// APIKey for the default Gemini model (falls back to the agent's model
	// key, GOOGLE_API_KEY or GEMINI_API_KEY).
	APIKey       string
	DefaultModel string
	AppName      string
	Cache        *adapter.Cache[agent.Agent]
	// Logger (defaults to NoOpLogger if nil)
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// Converter translates core objects into ADK shapes and runs them.
type Converter struct {
	opts   Options
	logger logging.Logger
}

var _ adapter.Runner = (*Converter)(nil)

// New creates a converter.
func New(optFns ...func(o *Options)) *Converter {
	opts := Options{
		DefaultModel: DefaultModel,
		AppName:      DefaultAppName,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Cache == nil {
		opts.Cache = adapter.NewCache[agent.Agent]()
	}
	c := &Converter{opts: opts, logger: logging.OrNoOp(opts.Logger)}
	if c.opts.ModelFactory == nil {
		c.opts.ModelFactory = c.geminiModel
	}
	if c.opts.Executor == nil {
		c.opts.Executor = &SessionExecutor{AppName: opts.AppName}
	}
	return c
}

// Vendor implements adapter.Runner.
func (c *Converter) Vendor() string { return adapter.VendorADK }

// Tool wraps t as an ADK function tool. The handler forwards the decoded
// arguments to t and shapes the result as an object.
func (c *Converter) Tool(t core.Tool) (tool.Tool, error) {
	schema, err := inputSchema(t.Parameters())
	if err != nil {
		return nil, fmt.Errorf("adk: tool %s: %w", t.Name(), err)
	}

	ft, err := functiontool.New(
		functiontool.Config{
			Name:        t.Name(),
			Description: adapter.DescriptionOr(t),
			InputSchema: schema,
		},
		func(ctx tool.Context, args map[string]any) (map[string]any, error) {
			res, err := t.Call(logging.WithLogger(ctx, c.logger), args)
			if err != nil {
				return map[string]any{"error": err.Error()}, nil
			}
			return adapter.ResultMap(res), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("adk: tool %s: %w", t.Name(), err)
	}

	c.opts.Metrics.Converted(c.Vendor(), "tool")
	return ft, nil
}

// Model builds the ADK model for m.
func (c *Converter) Model(ctx context.Context, m core.Model) (model.LLM, error) {
	llm, err := c.opts.ModelFactory(ctx, m)
	if err != nil {
		return nil, err
	}
	c.opts.Metrics.Converted(c.Vendor(), "model")
	return llm, nil
}

// Agent converts a into an llmagent (cached by ID).
func (c *Converter) Agent(ctx context.Context, a *core.Agent) (agent.Agent, error) {
	if err := adapter.CheckProvider(a.Model, core.ProviderGoogle); err != nil {
		return nil, err
	}
	ag, hit, err := c.opts.Cache.GetOrCreate(adapter.AgentKey(a), func() (agent.Agent, error) {
		llm, err := c.Model(ctx, a.Model)
		if err != nil {
			return nil, err
		}

		tools := make([]tool.Tool, 0, len(a.Tools))
		for _, t := range a.Tools {
			at, err := c.Tool(t)
			if err != nil {
				return nil, err
			}
			tools = append(tools, at)
		}

		cfg := llmagent.Config{
			Name:        agentName(a),
			Description: adapter.DescriptionOr(adapter.DescribeAgent(a)),
			Model:       llm,
			Instruction: a.SystemPrompt,
			Tools:       tools,
		}
		if gc := generateConfig(a.Model); gc != nil {
			cfg.GenerateContentConfig = gc
		}

		la, err := llmagent.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("adk: agent %s: %w", a.Name, err)
		}
		c.opts.Metrics.Converted(c.Vendor(), "agent")
		return la, nil
	})
	if hit {
		c.opts.Metrics.CacheHit(c.Vendor())
	}
	return ag, err
}

// Prompt returns p unchanged. ADK resolves instruction placeholders from
// session state itself.
func (c *Converter) Prompt(p core.Prompt) core.Prompt { return p }

// Run implements adapter.Runner.
func (c *Converter) Run(ctx context.Context, a *core.Agent, query string, data map[string]any) (string, error) {
	ag, err := c.Agent(ctx, a)
	if err != nil {
		return "", err
	}
	return c.RunAgent(ctx, ag, query, data)
}

// RunAgent executes ag on query (with data as context).
func (c *Converter) RunAgent(ctx context.Context, ag agent.Agent, query string, data map[string]any) (out string, err error) {
	start := time.Now()
	defer func() { adapter.ObserveRun(c.logger, c.opts.Metrics, c.Vendor(), ag.Name(), start, err) }()

	prompt, err := adapter.BuildQuery(query, data)
	if err != nil {
		return "", err
	}

	out, err = c.opts.Executor.Execute(logging.WithLogger(ctx, c.logger), ag, prompt)
	if err != nil {
		return "", fmt.Errorf("adk: run %s: %w", ag.Name(), err)
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

func (c *Converter) geminiModel(ctx context.Context, m core.Model) (model.LLM, error) {
	key := c.opts.APIKey
	if key == "" {
		key = m.APIKey
	}
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("adk: %w: no API key configured", adapter.ErrMissingDependency)
	}

	llm, err := gemini.NewModel(ctx, m.NameOr(c.opts.DefaultModel), &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("adk: create gemini model: %w", err)
	}
	return llm, nil
}

// SessionExecutor runs agents through an ADK runner backed by an in-memory
// session service. Each Execute uses a fresh session.
type SessionExecutor struct {
	AppName string
	UserID  string
}

// Execute implements Executor and returns the text of the agent's final
// response.
func (e *SessionExecutor) Execute(ctx context.Context, a agent.Agent, query string) (string, error) {
	userID := e.UserID
	if userID == "" {
		userID = defaultUserID
	}

	svc := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        e.AppName,
		Agent:          a,
		SessionService: svc,
	})
	if err != nil {
		return "", err
	}

	created, err := svc.Create(ctx, &session.CreateRequest{AppName: e.AppName, UserID: userID})
	if err != nil {
		return "", err
	}

	var final string
	msg := genai.NewContentFromText(query, genai.RoleUser)
	for event, err := range r.Run(ctx, userID, created.Session.ID(), msg, agent.RunConfig{}) {
		if err != nil {
			return "", err
		}
		if event == nil || event.Partial || event.Content == nil {
			continue
		}
		if txt := contentText(event.Content); txt != "" {
			final = txt
		}
	}
	return final, nil
}

func contentText(content *genai.Content) string {
	var sb strings.Builder
	for _, p := range content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// inputSchema converts a JSON schema map into the jsonschema-go type ADK
// expects.
func inputSchema(params map[string]any) (*jsonschema.Schema, error) {
	if params == nil {
		params = map[string]any{"type": "object"}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func generateConfig(m core.Model) *genai.GenerateContentConfig {
	if m.Temperature == nil && m.MaxTokens <= 0 {
		return nil
	}
	gc := &genai.GenerateContentConfig{}
	if m.Temperature != nil {
		gc.Temperature = genai.Ptr(float32(*m.Temperature))
	}
	if m.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(m.MaxTokens)
	}
	return gc
}

// agentName returns an identifier-safe agent name; ADK rejects names with
// spaces or dashes.
func agentName(a *core.Agent) string {
	name := a.Address()
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
