package printing

import "github.com/spoolgate/backend/internal/domain/shared"

// Error codes for the printing context.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodePathEscape      = "PATH_ESCAPE"
	CodeNotFound        = "NOT_FOUND"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeSpoolerOffline  = "SPOOLER_OFFLINE"
	CodeSubmitFailed    = "SUBMIT_FAILED"
)

// Sentinel errors, match with errors.Is.
var (
	ErrValidation      = shared.NewDomainError(CodeValidation, "Invalid print request")
	ErrPathEscape      = shared.NewDomainError(CodePathEscape, "Path is outside the storage root")
	ErrNotFound        = shared.NewDomainError(CodeNotFound, "Document not found")
	ErrFileTooLarge    = shared.NewDomainError(CodeFileTooLarge, "File size exceeds maximum limit")
	ErrUnsupportedType = shared.NewDomainError(CodeUnsupportedType, "File type not supported")
	ErrSpoolerOffline  = shared.NewDomainError(CodeSpoolerOffline, "CUPS is not online. Cannot print")
	ErrSubmitFailed    = shared.NewDomainError(CodeSubmitFailed, "Failed to print file")
)

// NewValidationError returns a VALIDATION_ERROR with a specific message
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, message)
}

// NewSubmitFailedError returns a SUBMIT_FAILED error carrying the spooler's
// diagnostic text. Without a detail the cause's text is used instead.
func NewSubmitFailedError(detail string, cause error) *shared.DomainError {
	if detail == "" {
		return shared.WrapDomainError(CodeSubmitFailed, ErrSubmitFailed.Message, cause)
	}
	return shared.DescribeDomainError(CodeSubmitFailed, ErrSubmitFailed.Message+": "+detail, cause)
}
