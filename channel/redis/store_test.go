package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contexa/channel"
	"github.com/hupe1980/contexa/core"
)

func setupStore(t *testing.T, optFns ...func(o *Options)) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewStore(client, optFns...)
}

func at(sec int) func(o *core.MessageOptions) {
	return func(o *core.MessageOptions) {
		o.Timestamp = time.Date(2024, 1, 1, 0, 0, sec, 0, time.UTC)
	}
}

func TestStore_AppendAndList(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	m1 := core.NewMessage("A", "B", "one", at(1))
	m2 := core.NewMessage("A", "C", "other", at(2))
	m3 := core.NewMessage("D", "B", map[string]any{"n": 3.0}, at(3))
	for _, m := range []core.Message{m1, m2, m3} {
		require.NoError(t, store.Append(ctx, m))
	}

	got, err := store.List(ctx, "B", time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, m1.ID(), got[0].ID())
	assert.Equal(t, "one", got[0].Content())
	assert.Equal(t, m3.ID(), got[1].ID())
	assert.Equal(t, map[string]any{"n": 3.0}, got[1].Content())

	got, err = store.List(ctx, "B", m1.Timestamp())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, m3.ID(), got[0].ID())

	got, err = store.List(ctx, "nobody", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_KeyLayout(t *testing.T) {
	mr, store := setupStore(t, func(o *Options) {
		o.KeyPrefix = "test:"
		o.Channel = "ops"
	})
	require.NoError(t, store.Append(context.Background(), core.NewMessage("A", "B", "hi")))

	assert.True(t, mr.Exists("test:channel:ops:inbox:B"))
}

func TestStore_SharedBetweenChannels(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	writer := channel.New(func(o *channel.Options) { o.Store = store })
	reader := channel.New(func(o *channel.Options) { o.Store = store })

	id, err := writer.Send(ctx, core.NewMessage("A", "B", "hello"))
	require.NoError(t, err)

	got, err := reader.Receive(ctx, "B")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID())

	again, err := reader.Receive(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestStore_UnsupportedContent(t *testing.T) {
	_, store := setupStore(t)
	err := store.Append(context.Background(), core.NewMessage("A", "B", 42))
	assert.ErrorIs(t, err, core.ErrUnsupportedContent)
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Connect(ctx, Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))
}
