// Package redis provides a core.MessageStore backed by Redis Streams so that
// several processes can share one channel. Each recipient has its own stream;
// stream order is send order.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hupe1980/contexa/core"
)

const messageField = "message"

// Options configures a Store.
type Options struct {
	// KeyPrefix is prepended to every key (default "contexa:").
	KeyPrefix string
	// Channel scopes the keys to one channel name (default "default").
	Channel string
}

// Config describes how to connect to Redis.
type Config struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	PoolSize int    `yaml:"pool_size" env:"POOL_SIZE"`
}

// Store implements core.MessageStore on Redis Streams.
type Store struct {
	client goredis.UniversalClient
	opts   Options
}

var _ core.MessageStore = (*Store)(nil)

// NewStore wraps an existing client.
func NewStore(client goredis.UniversalClient, optFns ...func(o *Options)) *Store {
	opts := Options{KeyPrefix: "contexa:", Channel: "default"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, opts: opts}
}

// Connect dials Redis, verifies the connection and returns a Store owning
// the client.
func Connect(ctx context.Context, cfg Config, optFns ...func(o *Options)) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewStore(client, optFns...), nil
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) inboxKey(recipientID string) string {
	return s.opts.KeyPrefix + "channel:" + s.opts.Channel + ":inbox:" + recipientID
}

// Append adds msg to the recipient's stream.
func (s *Store) Append(ctx context.Context, msg core.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return s.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.inboxKey(msg.RecipientID()),
		Values: map[string]any{messageField: string(data)},
	}).Err()
}

// List reads the recipient's stream from the beginning, keeping messages
// newer than since when it is non-zero.
func (s *Store) List(ctx context.Context, recipientID string, since time.Time) ([]core.Message, error) {
	entries, err := s.client.XRange(ctx, s.inboxKey(recipientID), "-", "+").Result()
	if err != nil {
		return nil, err
	}

	out := make([]core.Message, 0, len(entries))
	for _, e := range entries {
		raw, ok := e.Values[messageField].(string)
		if !ok {
			return nil, fmt.Errorf("%w: stream entry %s has no %q field", core.ErrInvalidMessage, e.ID, messageField)
		}
		var msg core.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("decode stream entry %s: %w", e.ID, err)
		}
		if !since.IsZero() && !msg.Timestamp().After(since) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}
