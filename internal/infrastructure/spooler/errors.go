package spooler

import "errors"

// Error codes for spooler command failures
const (
	ErrCodeCommandTimeout = "COMMAND_TIMEOUT"
	ErrCodeCommandFailed  = "COMMAND_FAILED"
	ErrCodeBinaryNotFound = "BINARY_NOT_FOUND"
)

// CommandError represents a failed invocation of a spooler binary
type CommandError struct {
	Code    string
	Command string
	Message string
	// Stderr is the trimmed diagnostic output of the process, if any
	Stderr string
	Cause  error
}

func (e *CommandError) Error() string {
	msg := e.Command + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// Detail returns the most useful diagnostic text: stderr when the process
// produced any, otherwise the error message.
func (e *CommandError) Detail() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// NewCommandError creates a new CommandError
func NewCommandError(code, command, message string, cause error) *CommandError {
	return &CommandError{
		Code:    code,
		Command: command,
		Message: message,
		Cause:   cause,
	}
}

// IsTimeout reports whether err is a spooler command timeout
func IsTimeout(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.Code == ErrCodeCommandTimeout
}

// IsBinaryNotFound reports whether err is caused by a missing spooler binary
func IsBinaryNotFound(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.Code == ErrCodeBinaryNotFound
}
