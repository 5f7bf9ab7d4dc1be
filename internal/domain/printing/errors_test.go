package printing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSubmitFailedError(t *testing.T) {
	cause := errors.New("lp: exited with status 1: exit status 1")

	t.Run("detail replaces the cause text", func(t *testing.T) {
		err := NewSubmitFailedError("lp: The printer or class does not exist.", cause)
		assert.Equal(t, "Failed to print file: lp: The printer or class does not exist.", err.Error())
		assert.Equal(t, err.Error(), err.Message)
		assert.ErrorIs(t, err, ErrSubmitFailed)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("cause text without detail", func(t *testing.T) {
		err := NewSubmitFailedError("", cause)
		assert.Equal(t, "Failed to print file: lp: exited with status 1: exit status 1", err.Error())
		assert.Equal(t, "Failed to print file", err.Message)
		assert.ErrorIs(t, err, cause)
	})
}
