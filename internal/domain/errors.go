// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation  ErrorType = iota // Malformed payloads and invalid input
	ErrorTypeNotFound                     // Bot, calendar, profile or settings missing
	ErrorTypeConflict                     // Uniqueness or revision conflicts
	ErrorTypeInternal                     // Unexpected failures
	ErrorTypeUnavailable                  // Provider, hosting or store call failures
	ErrorTypeEmptyResult                  // Recoverable: no video URL, no participants, no transcript
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeValidation:  "validation",
	ErrorTypeNotFound:    "not_found",
	ErrorTypeConflict:    "conflict",
	ErrorTypeInternal:    "internal",
	ErrorTypeUnavailable: "unavailable",
	ErrorTypeEmptyResult: "empty_result",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// IsErrorType reports whether err carries the given semantic type.
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	return GetErrorType(err) == errorType
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}

func NewEmptyResultError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeEmptyResult, Message: message, Err: errors.Join(err...)}
}
