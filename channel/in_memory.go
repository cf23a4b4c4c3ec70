package channel

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/contexa/core"
)

// InMemoryStore is a process-local MessageStore. Appends are serialized by a
// mutex; List captures the current slice header under a read lock and
// filters outside it. Stored elements are never written again, so the
// captured prefix stays valid while later appends proceed.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages []core.Message
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append adds msg at the end of the log. It never fails.
func (s *InMemoryStore) Append(_ context.Context, msg core.Message) error {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return nil
}

// List returns the recipient's messages newer than since (if non-zero).
func (s *InMemoryStore) List(_ context.Context, recipientID string, since time.Time) ([]core.Message, error) {
	snapshot := s.snapshot()

	out := make([]core.Message, 0)
	for _, m := range snapshot {
		if m.RecipientID() != recipientID {
			continue
		}
		if !since.IsZero() && !m.Timestamp().After(since) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Len returns the number of stored messages across all recipients.
func (s *InMemoryStore) Len() int {
	return len(s.snapshot())
}

// All returns every stored message in insertion order.
func (s *InMemoryStore) All() []core.Message {
	snapshot := s.snapshot()
	out := make([]core.Message, len(snapshot))
	copy(out, snapshot)
	return out
}

func (s *InMemoryStore) snapshot() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages[:len(s.messages):len(s.messages)]
}
