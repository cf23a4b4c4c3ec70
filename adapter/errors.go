package adapter

import "errors"

var (
	// ErrMissingDependency is returned on first use when a vendor client or
	// credential is not configured. It is not retried.
	ErrMissingDependency = errors.New("adapter: missing dependency")

	// ErrNotImplemented marks vendor operations without a Go backing.
	ErrNotImplemented = errors.New("adapter: not implemented")

	// ErrUnsupportedProvider is returned when an agent's model provider cannot
	// be served by the selected vendor.
	ErrUnsupportedProvider = errors.New("adapter: unsupported model provider")

	// ErrToolNotFound is reported when a model calls a tool the agent lacks.
	ErrToolNotFound = errors.New("adapter: tool not found")

	// ErrMaxToolRounds is returned when a model keeps requesting tool calls
	// past the configured limit.
	ErrMaxToolRounds = errors.New("adapter: tool call rounds exceeded")

	// ErrUnknownVendor is returned when no runner is registered for a vendor.
	ErrUnknownVendor = errors.New("adapter: unknown vendor")
)
