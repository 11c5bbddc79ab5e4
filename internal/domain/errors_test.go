// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	cause := errors.New("nats: key not found")

	assert.Equal(t, "bot not found: nats: key not found", NewNotFoundError("bot not found", cause).Error())
	assert.Equal(t, "bot not found", NewNotFoundError("bot not found").Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUnavailableError("recall unavailable", cause)

	assert.ErrorIs(t, err, cause)
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"validation", NewValidationError("bad payload"), ErrorTypeValidation},
		{"not found", NewNotFoundError("missing"), ErrorTypeNotFound},
		{"conflict", NewConflictError("exists"), ErrorTypeConflict},
		{"internal", NewInternalError("oops"), ErrorTypeInternal},
		{"unavailable", NewUnavailableError("down"), ErrorTypeUnavailable},
		{"empty result", NewEmptyResultError("no participants"), ErrorTypeEmptyResult},
		{"wrapped", fmt.Errorf("sync: %w", NewNotFoundError("calendar")), ErrorTypeNotFound},
		{"plain error", errors.New("plain"), ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorType(tt.err))
			assert.True(t, IsErrorType(tt.err, tt.expected))
		})
	}
}

func TestIsErrorType_Nil(t *testing.T) {
	assert.False(t, IsErrorType(nil, ErrorTypeInternal))
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "empty_result", ErrorTypeEmptyResult.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
}
