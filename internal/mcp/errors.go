package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	cause        error
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// MapError maps domain errors to MCP error codes. Unrecognised errors are
// returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, document.ErrInvalidMetadata):
		return &APIError{Code: "INVALID_METADATA", Message: err.Error(), RecoveryHint: "Check name, size and MIME type", cause: err}
	case errors.Is(err, document.ErrUnknownDocument):
		return &APIError{Code: "UNKNOWN_DOCUMENT", Message: err.Error(), RecoveryHint: "Call list_documents for valid ids", cause: err}
	case errors.Is(err, document.ErrInvalidTransition):
		return &APIError{Code: "INVALID_TRANSITION", Message: err.Error(), RecoveryHint: "Check the document status first", cause: err}
	case errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), cause: err}
	default:
		return err
	}
}
