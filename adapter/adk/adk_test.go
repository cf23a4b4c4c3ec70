package adk

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/testutil"
)

// fakeLLM answers every request with a fixed text.
type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Name() string { return "fake-llm" }

func (f *fakeLLM) GenerateContent(_ context.Context, _ *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		yield(&model.LLMResponse{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}, nil)
	}
}

type fakeExecutor struct {
	mu      sync.Mutex
	queries []string
	reply   string
	err     error
}

func (f *fakeExecutor) Execute(_ context.Context, a agent.Agent, query string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return "", f.err
	}
	return a.Name() + ": " + f.reply, nil
}

func fakeModels(reply string) func(o *Options) {
	return func(o *Options) {
		o.ModelFactory = func(context.Context, core.Model) (model.LLM, error) {
			return &fakeLLM{reply: reply}, nil
		}
	}
}

func newAgent(tools ...core.Tool) *core.Agent {
	return core.NewAgent("travel-planner", core.Model{Temperature: core.Ptr(0.3)}, func(o *core.AgentOptions) {
		o.Description = "Plans trips"
		o.SystemPrompt = "Plan carefully."
		o.Tools = tools
	})
}

func TestConverter_Tool(t *testing.T) {
	tl := testutil.NewRecordingTool("book_flight", nil)
	at, err := New().Tool(tl)
	require.NoError(t, err)
	assert.Equal(t, "book_flight", at.Name())
	assert.Equal(t, "test tool book_flight", at.Description())
}

func TestInputSchema(t *testing.T) {
	s, err := inputSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"city": map[string]any{"type": "string"}},
		"required":   []string{"city"},
	})
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type)
	assert.Contains(t, s.Properties, "city")
	assert.Equal(t, []string{"city"}, s.Required)

	s, err = inputSchema(nil)
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type)
}

func TestConverter_Agent(t *testing.T) {
	c := New(fakeModels("ok"))
	a := newAgent(testutil.NewRecordingTool("book_flight", nil))

	ag, err := c.Agent(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "travel_planner", ag.Name())
	assert.Equal(t, "Plans trips", ag.Description())

	again, err := c.Agent(context.Background(), a)
	require.NoError(t, err)
	assert.Same(t, ag, again)
}

func TestConverter_AgentErrors(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := New().Agent(context.Background(), newAgent())
	assert.ErrorIs(t, err, adapter.ErrMissingDependency)

	_, err = New(fakeModels("x")).Agent(context.Background(), core.NewAgent("a", core.NewModel(core.ProviderAnthropic, "claude")))
	assert.ErrorIs(t, err, adapter.ErrUnsupportedProvider)
}

func TestConverter_PromptPassthrough(t *testing.T) {
	p := core.NewPrompt("Hello {user_name}")
	assert.Equal(t, p, New().Prompt(p))
}

func TestConverter_RunWithExecutor(t *testing.T) {
	exec := &fakeExecutor{reply: "booked"}
	c := New(fakeModels("unused"), func(o *Options) { o.Executor = exec })

	out, err := c.Run(context.Background(), newAgent(), "book Paris", map[string]any{"budget": 500})
	require.NoError(t, err)
	assert.Equal(t, "travel_planner: booked", out)
	require.Len(t, exec.queries, 1)
	assert.Contains(t, exec.queries[0], `"budget": 500`)

	boom := errors.New("session failed")
	_, err = New(fakeModels("x"), func(o *Options) { o.Executor = &fakeExecutor{err: boom} }).
		Run(context.Background(), newAgent(), "q", nil)
	assert.ErrorIs(t, err, boom)
}

func TestSessionExecutor(t *testing.T) {
	c := New(fakeModels("Paris in spring."))

	out, err := c.Run(context.Background(), newAgent(), "Where to go?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Paris in spring.", out)
}

func TestConverter_Handoff(t *testing.T) {
	exec := &fakeExecutor{reply: "itinerary"}
	c := New(fakeModels("x"), func(o *Options) { o.Executor = exec })
	ch := channel.New()

	out, err := c.Handoff(context.Background(), ch, core.NewAgent("concierge", core.Model{}), newAgent(), "plan", nil)
	require.NoError(t, err)
	assert.Equal(t, "travel_planner: itinerary", out)

	inbox, err := ch.Receive(context.Background(), "travel-planner")
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestAgentName(t *testing.T) {
	assert.Equal(t, "my_agent_1", agentName(core.NewAgent("my agent-1", core.Model{})))
}
