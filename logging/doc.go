// Package logging provides a minimal logging interface and adapters for contexa.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that channels, adapters and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and StructuredLogger built on log/slog
//   - ZapAdapter wrapping a *zap.Logger
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - WithLogger / FromContext for carrying a logger through a context
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	ch := channel.New(func(o *channel.Options) { o.Logger = logger })
//
// All args after the message are alternating key/value pairs.
package logging
