package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Pipeline specific errors
	ErrMalformedResponse   ErrorCode = "MALFORMED_RESPONSE"
	ErrUnsupportedFormat   ErrorCode = "UNSUPPORTED_FORMAT"
	ErrUnsupportedDocument ErrorCode = "UNSUPPORTED_DOCUMENT"
	ErrLLMServiceError     ErrorCode = "LLM_SERVICE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err, or any error it wraps, is a DomainError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Helper functions for common errors
func NewNotFoundError(path string) *DomainError {
	return NewError(ErrNotFound, fmt.Sprintf("file not found: %s", path), nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewMalformedResponseError(err error) *DomainError {
	return NewError(ErrMalformedResponse, "generation output is not a well-formed quiz", err)
}

func NewUnsupportedFormatError(format string) *DomainError {
	return NewError(ErrUnsupportedFormat, fmt.Sprintf("unsupported export format: %q", format), nil)
}

func NewUnsupportedDocumentError(ext string) *DomainError {
	return NewError(ErrUnsupportedDocument, fmt.Sprintf("unsupported document type: %q (supported: pdf, docx, pptx, txt, md)", ext), nil)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(ErrLLMServiceError, "Failed to process with LLM service", err)
}
