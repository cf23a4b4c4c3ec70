// Package channel implements the agent-to-agent mailbox: an append-only log
// of core.Message values that receivers poll by recipient id.
//
// Receive is a pure read. Messages are never consumed, so polling twice with
// the same arguments returns the same messages; callers that want "new
// since last poll" semantics pass the timestamp of the last message they saw
// through Since.
//
// Storage is pluggable through core.MessageStore. InMemoryStore is the
// default; the redis sub-package shares a channel between processes.
package channel
