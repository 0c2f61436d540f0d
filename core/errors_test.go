package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Taxonomy(t *testing.T) {
	cfgErr := NewConfigurationError("AZURE_OPENAI_ENDPOINT", "missing")
	assert.ErrorIs(t, cfgErr, ErrConfiguration)
	assert.Contains(t, cfgErr.Error(), "AZURE_OPENAI_ENDPOINT")
	assert.Equal(t, "configuration error: bad", (&ConfigurationError{Reason: "bad"}).Error())

	var empty error = &EmptyParticipantsError{}
	assert.ErrorIs(t, empty, ErrConfiguration)

	cause := errors.New("quota exceeded")
	backendErr := NewBackendError("invoke", "planner", cause)
	wrapped := fmt.Errorf("round 2: %w", backendErr)
	assert.ErrorIs(t, wrapped, ErrBackend)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, wrapped, ErrConfiguration)

	var be *BackendError
	assert.ErrorAs(t, wrapped, &be)
	assert.Equal(t, "invoke", be.Op)
	assert.Equal(t, "backend create failed: quota exceeded", NewBackendError("create", "", cause).Error())
}

func TestReleaseError_CollectsFailures(t *testing.T) {
	first := NewBackendError("delete", "a", errors.New("boom"))
	second := NewBackendError("delete", "b", errors.New("bang"))
	err := &ReleaseError{Failures: []error{first, second}}

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.ErrorIs(t, err, ErrBackend)
	assert.Contains(t, err.Error(), "2 agent(s)")
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "bang")
}
