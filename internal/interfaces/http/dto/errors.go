package dto

import (
	"net/http"

	"github.com/spoolgate/backend/internal/domain/printing"
)

// Printing error codes are the domain codes, surfaced unchanged
const (
	ErrCodeValidation      = printing.CodeValidation
	ErrCodePathEscape      = printing.CodePathEscape
	ErrCodeNotFound        = printing.CodeNotFound
	ErrCodeFileTooLarge    = printing.CodeFileTooLarge
	ErrCodeUnsupportedType = printing.CodeUnsupportedType
	ErrCodeSpoolerOffline  = printing.CodeSpoolerOffline
	ErrCodeSubmitFailed    = printing.CodeSubmitFailed
)

// Transport error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeBodyTooLarge = "REQUEST_TOO_LARGE"
)

// MessageFileUnavailable replaces the detail of path-escape failures so
// clients cannot map the storage layout
const MessageFileUnavailable = "File unavailable"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeUnsupportedType: http.StatusBadRequest,
	ErrCodeFileTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodePathEscape:      http.StatusNotFound,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeSpoolerOffline:  http.StatusServiceUnavailable,
	ErrCodeSubmitFailed:    http.StatusInternalServerError,

	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// PublicError returns the code and message a client should see for a
// domain error. Path escapes are reported as a plain not-found.
func PublicError(code, message string) (string, string) {
	if code == ErrCodePathEscape {
		return ErrCodeNotFound, MessageFileUnavailable
	}
	return code, message
}
