// Package core provides the vendor-neutral domain types shared by every
// contexa adapter. It defines:
//
//   - Agent, Model and Tool (the bundle converted into vendor SDK shapes)
//   - Prompt (system prompt templates)
//   - Message (an immutable agent-to-agent communication record)
//   - MessageStore (pluggable append-only storage behind a channel)
//
// Concrete stores, channels and vendor adapters live in sibling packages so
// that core stays free of SDK dependencies.
package core
