package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/internal/testutil"
)

type fakeRunner struct {
	mu    sync.Mutex
	got   []map[string]any
	reply string
	err   error
}

func (r *fakeRunner) Vendor() string { return "fake" }

func (r *fakeRunner) Run(_ context.Context, agent *core.Agent, query string, data map[string]any) (string, error) {
	r.mu.Lock()
	r.got = append(r.got, data)
	r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	return fmt.Sprintf("%s: %s", agent.Name, r.reply+query), nil
}

var _ Runner = (*fakeRunner)(nil)

// -------------------- Cache --------------------

func TestCache_GetPut(t *testing.T) {
	c := NewCache[string]()
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", "x")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, 1, c.Len())

	c.Delete("a")
	assert.Equal(t, 0, c.Len())
}

func TestCache_ZeroValue(t *testing.T) {
	var c Cache[int]
	c.Put("k", 1)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCache_GetOrCreate(t *testing.T) {
	c := NewCache[*core.Agent]()
	var calls int32

	create := func() (*core.Agent, error) {
		atomic.AddInt32(&calls, 1)
		return core.NewAgent("a", core.Model{}), nil
	}

	var wg sync.WaitGroup
	results := make([]*core.Agent, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.GetOrCreate("id", create)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	_, hit, err := c.GetOrCreate("id", create)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestAgentKey(t *testing.T) {
	named := core.NewAgent("a", core.Model{}, func(o *core.AgentOptions) { o.ID = "fixed" })
	assert.Equal(t, "fixed", AgentKey(named))

	x := &core.Agent{Name: "x"}
	y := &core.Agent{Name: "x"}
	assert.NotEqual(t, AgentKey(x), AgentKey(y))
	assert.Equal(t, AgentKey(x), AgentKey(x))
	assert.NotEqual(t, "", AgentKey(x))
}

func TestCache_GetOrCreateError(t *testing.T) {
	c := NewCache[int]()
	boom := errors.New("boom")

	_, hit, err := c.GetOrCreate("k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, hit)
	assert.Equal(t, 0, c.Len())
}

// -------------------- BuildQuery --------------------

func TestBuildQuery(t *testing.T) {
	q, err := BuildQuery("summarize", nil)
	require.NoError(t, err)
	assert.Equal(t, "summarize", q)

	q, err = BuildQuery("summarize", map[string]any{"topic": "go"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(q, "summarize\n\nContext:\n```json\n"))
	assert.Contains(t, q, `"topic": "go"`)

	_, err = BuildQuery("x", map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

// -------------------- Tool helpers --------------------

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = ParseArguments(`{"input":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, "x", args["input"])

	args, err = ParseArguments("null")
	require.NoError(t, err)
	assert.NotNil(t, args)

	_, err = ParseArguments("{")
	assert.Error(t, err)
}

func TestCallTool(t *testing.T) {
	echo := testutil.NewRecordingTool("echo", "pong")
	failing := testutil.NewRecordingTool("fail", nil)
	failing.Err = errors.New("broken")
	agent := core.NewAgent("a", core.Model{}, func(o *core.AgentOptions) {
		o.Tools = []core.Tool{echo, failing}
	})
	ctx := context.Background()

	res, err := CallTool(ctx, agent, "echo", map[string]any{"input": "ping"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"result": "pong"}, res)
	assert.Equal(t, []map[string]any{{"input": "ping"}}, echo.Calls())

	res, err = CallTool(ctx, agent, "fail", nil)
	assert.Error(t, err)
	assert.Equal(t, "broken", res["error"])

	res, err = CallTool(ctx, agent, "missing", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Contains(t, res["error"], "missing")
}

func TestResultHelpers(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1}, ResultMap(map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"result": 3}, ResultMap(3))
	assert.JSONEq(t, `{"result":"ok"}`, ResultString(map[string]any{"result": "ok"}))
}

// -------------------- Handoff --------------------

func TestHandoff_RecordsExchange(t *testing.T) {
	ch := channel.New()
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector(reg)
	runner := &fakeRunner{reply: "done "}

	planner := core.NewAgent("planner", core.Model{})
	writer := core.NewAgent("writer", core.Model{})
	ctx := context.Background()

	out, err := Handoff(ctx, runner, ch, planner, writer, "write", map[string]any{"topic": "go"},
		func(o *HandoffOptions) { o.Metrics = m })
	require.NoError(t, err)
	assert.Equal(t, "writer: done write", out)

	require.Len(t, runner.got, 1)
	assert.Equal(t, "planner", runner.got[0][DataHandoffFrom])
	assert.Equal(t, "go", runner.got[0]["topic"])

	inbox, err := ch.Receive(ctx, "writer")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	req := inbox[0]
	assert.Equal(t, core.MessageTypeHandoff, req.Type())
	assert.Equal(t, "planner", req.SenderID())
	assert.Equal(t, "write", req.Content().(map[string]any)["query"])
	assert.Equal(t, "fake", req.Metadata()[MetaVendor])

	replies, err := ch.Receive(ctx, "planner")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, core.MessageTypeResult, replies[0].Type())
	assert.Equal(t, out, replies[0].Content())
	assert.Equal(t, req.ID(), replies[0].Metadata()[MetaInReplyTo])
}

func TestHandoff_NoChannel(t *testing.T) {
	runner := &fakeRunner{}
	out, err := Handoff(context.Background(), runner, nil,
		core.NewAgent("a", core.Model{}), core.NewAgent("b", core.Model{}), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "b: q", out)
	assert.Equal(t, "a", runner.got[0][DataHandoffFrom])
}

func TestHandoff_RunError(t *testing.T) {
	ch := channel.New()
	boom := errors.New("vendor down")
	runner := &fakeRunner{err: boom}

	_, err := Handoff(context.Background(), runner, ch,
		core.NewAgent("a", core.Model{}), core.NewAgent("b", core.Model{}), "q", nil)
	assert.ErrorIs(t, err, boom)

	replies, err := ch.Receive(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestHandoff_DoesNotMutateData(t *testing.T) {
	data := map[string]any{"k": "v"}
	_, err := Handoff(context.Background(), &fakeRunner{}, nil,
		core.NewAgent("a", core.Model{}), core.NewAgent("b", core.Model{}), "q", data)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, data)
}

func TestHandoff_RecordedDataIsDetached(t *testing.T) {
	ctx := context.Background()
	ch := channel.New()
	data := map[string]any{"k": "v"}

	_, err := Handoff(ctx, &fakeRunner{}, ch,
		core.NewAgent("a", core.Model{}), core.NewAgent("b", core.Model{}), "q", data)
	require.NoError(t, err)

	data["k"] = "changed"
	data["extra"] = true

	inbox, err := ch.Receive(ctx, "b")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	recorded := inbox[0].Content().(map[string]any)["data"]
	assert.Equal(t, map[string]any{"k": "v"}, recorded)
}

func TestDescribeAgent(t *testing.T) {
	a := core.NewAgent("helper", core.Model{})
	d := DescribeAgent(a)
	assert.Equal(t, "helper", d.Name())
	assert.Equal(t, "helper", DescriptionOr(d))

	a.Description = "Helps out"
	assert.Equal(t, "Helps out", DescriptionOr(d))
}

func TestCheckProvider(t *testing.T) {
	assert.NoError(t, CheckProvider(core.Model{}, core.ProviderOpenAI))
	assert.NoError(t, CheckProvider(core.NewModel(core.ProviderOpenAI, "m"), core.ProviderOpenAI))
	assert.ErrorIs(t, CheckProvider(core.NewModel("acme", "m"), core.ProviderOpenAI), ErrUnsupportedProvider)
}
