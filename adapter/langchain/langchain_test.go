package langchain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/hupe1980/contexa/adapter"
	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/testutil"
)

// scriptedLLM replies with a fixed sequence of completions.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	prompts []string
	opts    []llms.CallOptions
}

func (s *scriptedLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	for _, m := range messages {
		for _, p := range m.Parts {
			if tc, ok := p.(llms.TextContent); ok {
				sb.WriteString(tc.Text)
			}
		}
	}
	s.prompts = append(s.prompts, sb.String())

	var co llms.CallOptions
	for _, o := range options {
		o(&co)
	}
	s.opts = append(s.opts, co)

	if len(s.replies) == 0 {
		return nil, errors.New("script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (s *scriptedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func withLLM(llm llms.Model) func(o *Options) {
	return func(o *Options) {
		o.LLMFactory = func(core.Model) (llms.Model, error) { return llm, nil }
	}
}

func newAgent(tools ...core.Tool) *core.Agent {
	return core.NewAgent("librarian", core.Model{Provider: core.ProviderOpenAI, Temperature: core.Ptr(0.4)}, func(o *core.AgentOptions) {
		o.SystemPrompt = "You catalogue {{books}}."
		o.Tools = tools
	})
}

func TestConverter_Tool(t *testing.T) {
	rt := testutil.NewRecordingTool("lookup", "found")
	lt := New().Tool(rt)

	assert.Equal(t, "lookup", lt.Name())
	assert.Contains(t, lt.Description(), "test tool lookup")
	assert.Contains(t, lt.Description(), `"properties"`)

	out, err := lt.Call(context.Background(), `{"input":"dune"}`)
	require.NoError(t, err)
	assert.Equal(t, "found", out)

	_, err = lt.Call(context.Background(), "plain text")
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"input": "dune"}, {"input": "plain text"}}, rt.Calls())
}

func TestConverter_ToolErrorBecomesObservation(t *testing.T) {
	rt := testutil.NewRecordingTool("lookup", nil)
	rt.Err = errors.New("index offline")

	out, err := New().Tool(rt).Call(context.Background(), "{}")
	require.NoError(t, err)
	assert.Equal(t, "error: index offline", out)
}

func TestConverter_ToolStructuredResult(t *testing.T) {
	rt := testutil.NewRecordingTool("count", 3)
	out, err := New().Tool(rt).Call(context.Background(), "{}")
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":3}`, out)
}

func TestConverter_ModelAppliesDefaults(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"hi"}}
	m, err := New(withLLM(llm)).Model(core.Model{Temperature: core.Ptr(0.4), MaxTokens: 64})
	require.NoError(t, err)

	_, err = m.GenerateContent(context.Background(), []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "x")})
	require.NoError(t, err)
	assert.Equal(t, 0.4, llm.opts[0].Temperature)
	assert.Equal(t, 64, llm.opts[0].MaxTokens)

	plain, err := New(withLLM(llm)).Model(core.Model{})
	require.NoError(t, err)
	assert.Same(t, llm, plain)
}

func TestConverter_ProviderLLM(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	c := New()

	_, err := c.Model(core.NewModel(core.ProviderOpenAI, "gpt-4o"))
	assert.ErrorIs(t, err, adapter.ErrMissingDependency)

	_, err = c.Model(core.NewModel(core.ProviderAnthropic, "claude"))
	assert.ErrorIs(t, err, adapter.ErrMissingDependency)

	_, err = c.Model(core.NewModel(core.ProviderGoogle, "gemini"))
	assert.ErrorIs(t, err, adapter.ErrUnsupportedProvider)

	m, err := New(func(o *Options) { o.OpenAIKey = "sk-test" }).Model(core.NewModel(core.ProviderOpenAI, "gpt-4o"))
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestConverter_Prompt(t *testing.T) {
	pt := New().Prompt(core.NewPrompt("Summarize {{.topic}}"), "topic")
	out, err := pt.Format(map[string]any{"topic": "Go"})
	require.NoError(t, err)
	assert.Equal(t, "Summarize Go", out)
}

func TestConverter_RunWithToolStep(t *testing.T) {
	lookup := testutil.NewRecordingTool("lookup", "Dune, 1965")
	llm := &scriptedLLM{replies: []string{
		"Thought: I should search.\nAction: lookup\nAction Input: {\"input\":\"dune\"}",
		"Thought: I know it.\nFinal Answer: Dune was published in 1965.",
	}}
	c := New(withLLM(llm))
	a := newAgent(lookup)

	out, err := c.Run(context.Background(), a, "When was Dune published?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Dune was published in 1965.", out)
	assert.Equal(t, []map[string]any{{"input": "dune"}}, lookup.Calls())

	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[0], "You catalogue {{books}}.")
	assert.Contains(t, llm.prompts[0], "When was Dune published?")
	assert.Contains(t, llm.prompts[1], "Dune, 1965")

	ag, err := c.Agent(a)
	require.NoError(t, err)
	again, err := c.Agent(a)
	require.NoError(t, err)
	assert.Same(t, ag, again)
}

func TestConverter_RunError(t *testing.T) {
	llm := &scriptedLLM{}
	_, err := New(withLLM(llm)).Run(context.Background(), newAgent(), "q", nil)
	assert.Error(t, err)
}

func TestConverter_Handoff(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"Final Answer: shelved"}}
	ch := channel.New()

	out, err := New(withLLM(llm)).Handoff(context.Background(), ch, core.NewAgent("clerk", core.Model{}), newAgent(), "shelve it", nil)
	require.NoError(t, err)
	assert.Equal(t, "shelved", out)

	replies, err := ch.Receive(context.Background(), "clerk")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "shelved", replies[0].Content())
}
