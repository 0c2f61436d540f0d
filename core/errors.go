package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration matches every configuration failure, including
	// EmptyParticipantsError.
	ErrConfiguration = errors.New("configuration error")
	// ErrBackend matches every BackendError.
	ErrBackend = errors.New("backend error")
)

// ConfigurationError reports missing or invalid setup. It is raised before
// any agent is created.
type ConfigurationError struct {
	Field  string
	Reason string
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) hold.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// EmptyParticipantsError is returned by selection when there is nobody to pick.
type EmptyParticipantsError struct{}

func (*EmptyParticipantsError) Error() string {
	return "configuration error: no participants to select from"
}

// Is makes errors.Is(err, ErrConfiguration) hold.
func (*EmptyParticipantsError) Is(target error) bool { return target == ErrConfiguration }

// BackendError wraps a failure of a backend operation (create, invoke,
// delete, retrieve).
type BackendError struct {
	Op    string
	Agent string
	Err   error
}

// NewBackendError wraps err as a BackendError for op on agent.
func NewBackendError(op, agent string, err error) *BackendError {
	return &BackendError{Op: op, Agent: agent, Err: err}
}

func (e *BackendError) Error() string {
	if e.Agent == "" {
		return fmt.Sprintf("backend %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s failed for %s: %v", e.Op, e.Agent, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBackend) hold.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// ReleaseError collects the deletion failures of a teardown.
type ReleaseError struct {
	Failures []error
}

func (e *ReleaseError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("release failed for %d agent(s): %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *ReleaseError) Unwrap() []error { return e.Failures }
