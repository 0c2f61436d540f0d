// Package logging provides a minimal logging interface and adapters for groupchat.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine, the lifecycle manager and the backends use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - RunLogger adding run scoped attributes and backend call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	eng := engine.New(be, func(o *engine.Options) { o.Logger = logger })
//
// The interface is kept small so any structured logger can be plugged in.
package logging
