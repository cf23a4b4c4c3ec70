package core

// Agent is the vendor-neutral agent description converted by the adapters:
// a named bundle of a model, callable tools and a system prompt.
//
// ID is the cache key adapters use to avoid reconverting the same agent; it
// is assigned by NewAgent and should not change afterwards.
type Agent struct {
	ID           string
	Name         string
	Description  string
	Model        Model
	Tools        []Tool
	SystemPrompt string
	Metadata     map[string]string
}

// AgentOptions configures NewAgent.
type AgentOptions struct {
	ID           string
	Description  string
	Tools        []Tool
	SystemPrompt string
	Metadata     map[string]string
}

// NewAgent creates an agent with a fresh identifier.
func NewAgent(name string, model Model, optFns ...func(o *AgentOptions)) *Agent {
	opts := AgentOptions{Metadata: map[string]string{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ID == "" {
		opts.ID = NewID()
	}
	if opts.Metadata == nil {
		opts.Metadata = map[string]string{}
	}
	return &Agent{
		ID:           opts.ID,
		Name:         name,
		Description:  opts.Description,
		Model:        model,
		Tools:        append([]Tool(nil), opts.Tools...),
		SystemPrompt: opts.SystemPrompt,
		Metadata:     opts.Metadata,
	}
}

// FindTool returns the tool registered under name.
func (a *Agent) FindTool(name string) (Tool, bool) {
	for _, t := range a.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// ToolNames lists tool names in registration order.
func (a *Agent) ToolNames() []string {
	names := make([]string, 0, len(a.Tools))
	for _, t := range a.Tools {
		names = append(names, t.Name())
	}
	return names
}

// Address is the mailbox id other agents use to reach this agent: its name,
// or its ID when unnamed.
func (a *Agent) Address() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
