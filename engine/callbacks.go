package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/groupchat/core"
)

// CallbackType defines the lifecycle points of a run where callbacks execute.
//
// Available callback types:
//   - BeforeInvoke/AfterInvoke: around every backend invocation
//   - OnEntry: after a transcript entry has been handed to the consumer
//   - OnError: when the run ends with an error
//   - OnRelease: after teardown of ephemeral agents
//
// Callbacks execute synchronously on the run's goroutine. Errors returned by
// BeforeInvoke, AfterInvoke and OnEntry callbacks abort the run; errors from
// OnError and OnRelease callbacks are logged and otherwise ignored.
type CallbackType string

const (
	// CallbackBeforeInvoke is triggered after selection, before the backend call.
	CallbackBeforeInvoke CallbackType = "before_invoke"

	// CallbackAfterInvoke is triggered after a successful backend call.
	// Message is nil when the agent produced no reply.
	CallbackAfterInvoke CallbackType = "after_invoke"

	// CallbackOnEntry is triggered after a transcript entry was emitted.
	CallbackOnEntry CallbackType = "on_entry"

	// CallbackOnError is triggered when the run ends with an error other
	// than cancellation.
	CallbackOnError CallbackType = "on_error"

	// CallbackOnRelease is triggered once teardown has completed.
	CallbackOnRelease CallbackType = "on_release"
)

// CallbackContext carries the information available at a callback point.
// Fields that do not apply to a callback type are left zero.
type CallbackContext struct {
	// RunID identifies the run.
	RunID string

	// Round is the number of completed rounds at the time of the callback.
	Round int

	// Agent is the participant selected for the current round.
	Agent core.AgentHandle

	// Message is the reply returned by the backend, if any.
	Message *core.Message

	// Entry is the emitted transcript entry for OnEntry callbacks.
	Entry *Entry

	// Err is the terminal error (OnError) or release error (OnRelease).
	Err error

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for run lifecycle hooks.
//
// Implementations should be fast (they block the run), free of panics and
// must not retain the CallbackContext.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback adapts a function to the Callback interface.
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a callback of the given type backed by fn.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type implements Callback.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute implements Callback.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager stores callbacks by type and executes them in registration
// order. It is safe for concurrent use by independent runs.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks runs all callbacks of callbackType, stopping at the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	if cm == nil {
		return nil
	}
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback failed: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback writes a one-line summary of every callback it sees.
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a LoggingCallback for callbackType.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type implements Callback.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute implements Callback.
func (c *LoggingCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	if c.logger != nil {
		message := fmt.Sprintf("[%s] run: %s, round: %d, agent: %s",
			c.callbackType, callbackCtx.RunID, callbackCtx.Round, callbackCtx.Agent.Name())
		c.logger(message)
	}
	return nil
}
