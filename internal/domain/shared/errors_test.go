package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	errNotFound := NewDomainError("NOT_FOUND", "Resource not found")
	err := NewDomainError("NOT_FOUND", "Document a.pdf not found")

	assert.True(t, errors.Is(err, errNotFound))
	assert.False(t, errors.Is(err, NewDomainError("VALIDATION_ERROR", "Invalid")))

	wrapped := fmt.Errorf("preview: %w", err)
	assert.True(t, errors.Is(wrapped, errNotFound))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := WrapDomainError("SUBMIT_FAILED", "Failed to print file", cause)

	assert.Equal(t, "Failed to print file: exit status 1", err.Error())
	assert.True(t, errors.Is(err, cause))

	var de *DomainError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &de))
	assert.Equal(t, "SUBMIT_FAILED", de.Code)
}

func TestDescribeDomainError(t *testing.T) {
	cause := errors.New("lp: exited with status 1: exit status 1")
	err := DescribeDomainError("SUBMIT_FAILED", "Failed to print file: lp: printer HP1 is disabled", cause)

	assert.Equal(t, "Failed to print file: lp: printer HP1 is disabled", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Same(t, cause, errors.Unwrap(err))
}
