// Package crewai converts vendor-neutral agents into CrewAI crew
// definitions (the agents.yaml / tasks.yaml layout CrewAI projects load).
// CrewAI has no Go runtime, so Run reports adapter.ErrNotImplemented; the
// generated YAML is meant to be executed by a CrewAI deployment.
package crewai

import (
	"context"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// ToolSpec describes a tool the crew runtime must provide.
type ToolSpec struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	ArgsSchema  map[string]any `yaml:"args_schema,omitempty"`
}

// AgentSpec is one entry of agents.yaml.
type AgentSpec struct {
	Role            string   `yaml:"role"`
	Goal            string   `yaml:"goal"`
	Backstory       string   `yaml:"backstory,omitempty"`
	LLM             string   `yaml:"llm,omitempty"`
	Tools           []string `yaml:"tools,omitempty"`
	AllowDelegation bool     `yaml:"allow_delegation"`
	Verbose         bool     `yaml:"verbose"`
}

// TaskSpec is one entry of tasks.yaml.
type TaskSpec struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
	Agent          string `yaml:"agent"`
}

// Crew is a complete crew definition.
type Crew struct {
	Agents map[string]*AgentSpec `yaml:"agents"`
	Tasks  map[string]*TaskSpec  `yaml:"tasks,omitempty"`
	Tools  []ToolSpec            `yaml:"tools,omitempty"`
}

// Options configures the converter.
type Options struct {
	// AllowDelegation is copied onto every converted agent.
	AllowDelegation bool
	Verbose         bool
	Cache           *adapter.Cache[*AgentSpec]
	// Logger (defaults to NoOpLogger if nil)
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// Converter translates core objects into CrewAI definitions.
type Converter struct {
	opts   Options
	logger logging.Logger
}

var _ adapter.Runner = (*Converter)(nil)

// New creates a converter.
func New(optFns ...func(o *Options)) *Converter {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Cache == nil {
		opts.Cache = adapter.NewCache[*AgentSpec]()
	}
	return &Converter{opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Vendor implements adapter.Runner.
func (c *Converter) Vendor() string { return adapter.VendorCrewAI }

// Tool describes t for the crew runtime.
func (c *Converter) Tool(t core.Tool) ToolSpec {
	c.opts.Metrics.Converted(c.Vendor(), "tool")
	return ToolSpec{
		Name:        t.Name(),
		Description: adapter.DescriptionOr(t),
		ArgsSchema:  t.Parameters(),
	}
}

// Model returns CrewAI's "provider/model" LLM string.
func (c *Converter) Model(m core.Model) string {
	c.opts.Metrics.Converted(c.Vendor(), "model")
	switch {
	case m.Name == "":
		return ""
	case m.Provider == "":
		return m.Name
	case m.Provider == core.ProviderGoogle:
		return "gemini/" + m.Name
	default:
		return m.Provider + "/" + m.Name
	}
}

// Agent converts a into an agents.yaml entry (cached by ID).
func (c *Converter) Agent(a *core.Agent) (*AgentSpec, error) {
	spec, hit, err := c.opts.Cache.GetOrCreate(adapter.AgentKey(a), func() (*AgentSpec, error) {
		c.opts.Metrics.Converted(c.Vendor(), "agent")
		return &AgentSpec{
			Role:            a.Address(),
			Goal:            adapter.DescriptionOr(adapter.DescribeAgent(a)),
			Backstory:       a.SystemPrompt,
			LLM:             c.Model(a.Model),
			Tools:           a.ToolNames(),
			AllowDelegation: c.opts.AllowDelegation,
			Verbose:         c.opts.Verbose,
		}, nil
	})
	if hit {
		c.opts.Metrics.CacheHit(c.Vendor())
	}
	return spec, err
}

// Prompt renders p with vars into a task description for agent.
func (c *Converter) Prompt(p core.Prompt, vars map[string]any, agent *core.Agent) (*TaskSpec, error) {
	text, err := p.Render(vars)
	if err != nil {
		return nil, err
	}
	c.opts.Metrics.Converted(c.Vendor(), "prompt")
	return &TaskSpec{
		Description:    text,
		ExpectedOutput: "A concise answer to the task.",
		Agent:          agent.Address(),
	}, nil
}

// Crew converts agents into a crew definition. Tools are deduplicated by name.
func (c *Converter) Crew(agents ...*core.Agent) (*Crew, error) {
	crew := &Crew{Agents: make(map[string]*AgentSpec, len(agents))}
	seen := map[string]bool{}

	for _, a := range agents {
		spec, err := c.Agent(a)
		if err != nil {
			return nil, err
		}
		if _, dup := crew.Agents[a.Address()]; dup {
			return nil, fmt.Errorf("crewai: duplicate agent %q", a.Address())
		}
		crew.Agents[a.Address()] = spec

		for _, t := range a.Tools {
			if seen[t.Name()] {
				continue
			}
			seen[t.Name()] = true
			crew.Tools = append(crew.Tools, c.Tool(t))
		}
	}

	sort.Slice(crew.Tools, func(i, j int) bool { return crew.Tools[i].Name < crew.Tools[j].Name })
	return crew, nil
}

// AddTask registers a task under key.
func (cr *Crew) AddTask(key string, task *TaskSpec) {
	if cr.Tasks == nil {
		cr.Tasks = map[string]*TaskSpec{}
	}
	cr.Tasks[key] = task
}

// WriteYAML encodes the crew as YAML.
func (cr *Crew) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cr); err != nil {
		return fmt.Errorf("crewai: encode crew: %w", err)
	}
	return enc.Close()
}

// ReadCrew decodes a crew definition written by WriteYAML.
func ReadCrew(r io.Reader) (*Crew, error) {
	var cr Crew
	if err := yaml.NewDecoder(r).Decode(&cr); err != nil {
		return nil, fmt.Errorf("crewai: decode crew: %w", err)
	}
	return &cr, nil
}

// Run implements adapter.Runner. CrewAI cannot be executed in-process.
func (c *Converter) Run(_ context.Context, a *core.Agent, _ string, _ map[string]any) (string, error) {
	c.logger.Warn("crewai.run.unsupported", "agent", a.Name)
	return "", fmt.Errorf("crewai: run %s: %w", a.Name, adapter.ErrNotImplemented)
}

// Handoff records the handoff request on ch and then fails like Run.
func (c *Converter) Handoff(ctx context.Context, ch *channel.Channel, src, target *core.Agent, query string, data map[string]any) (string, error) {
	return adapter.Handoff(ctx, c, ch, src, target, query, data, func(o *adapter.HandoffOptions) {
		o.Logger = c.logger
		o.Metrics = c.opts.Metrics
	})
}
