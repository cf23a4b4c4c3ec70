package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/tool"
)

// AgentDefinition is the on-disk form of a vendor-neutral agent.
//
//	name: researcher
//	description: Finds facts
//	system_prompt: You are a careful researcher.
//	model:
//	  provider: openai
//	  name: gpt-4o-mini
//	  temperature: 0.2
//	tools: [current_time, send_message]
type AgentDefinition struct {
	ID           string            `yaml:"id,omitempty"`
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description,omitempty"`
	SystemPrompt string            `yaml:"system_prompt,omitempty"`
	Model        core.Model        `yaml:"model"`
	Tools        []string          `yaml:"tools,omitempty"`
	Metadata     map[string]string `yaml:"metadata,omitempty"`
}

// LoadAgent reads an agent definition file.
func LoadAgent(path string) (*AgentDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent file: %w", err)
	}
	return ParseAgent(data)
}

// ParseAgent decodes and validates an agent definition.
func ParseAgent(data []byte) (*AgentDefinition, error) {
	var def AgentDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse agent definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks required fields.
func (d *AgentDefinition) Validate() error {
	if d.Name == "" {
		return errors.New("agent definition: name is required")
	}
	seen := make(map[string]bool, len(d.Tools))
	for _, name := range d.Tools {
		if seen[name] {
			return fmt.Errorf("agent definition %q: duplicate tool %q", d.Name, name)
		}
		seen[name] = true
	}
	return nil
}

// Build resolves the listed built-in tools and returns the agent. Mailbox
// tools act on behalf of the agent's name unless deps.AgentID is set.
func (d *AgentDefinition) Build(deps tool.BuiltinDeps) (*core.Agent, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if deps.AgentID == "" {
		deps.AgentID = d.Name
	}

	tools := make([]core.Tool, 0, len(d.Tools))
	for _, name := range d.Tools {
		t, err := tool.Builtin(name, deps)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", d.Name, err)
		}
		tools = append(tools, t)
	}

	return core.NewAgent(d.Name, d.Model, func(o *core.AgentOptions) {
		o.ID = d.ID
		o.Description = d.Description
		o.SystemPrompt = d.SystemPrompt
		o.Tools = tools
		o.Metadata = d.Metadata
	}), nil
}

// ApplyVendorDefaults fills an empty model name and API key from the vendor
// section matching the model's provider.
func (c *Config) ApplyVendorDefaults(m core.Model) core.Model {
	var v VendorConfig
	switch m.Provider {
	case core.ProviderOpenAI:
		v = c.Vendors.OpenAI
	case core.ProviderAnthropic:
		v = c.Vendors.Anthropic
	case core.ProviderGoogle:
		v = c.Vendors.Google
	default:
		return m
	}
	if m.Name == "" {
		m.Name = v.Model
	}
	if m.APIKey == "" {
		m.APIKey = v.APIKey
	}
	return m
}
