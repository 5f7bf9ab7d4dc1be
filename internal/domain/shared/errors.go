package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
	// described is set when Message already carries the cause's text
	described bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil && !e.described {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) matches any NOT_FOUND error regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a new domain error carrying an underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// DescribeDomainError creates a domain error whose message already describes
// cause. Error reports the message alone; cause stays reachable through Unwrap.
func DescribeDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		described: true,
	}
}
