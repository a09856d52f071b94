package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeBudget, "budget exceeded", baseErr)

	assert.Equal(t, ErrorTypeBudget, domainErr.Type)
	assert.Equal(t, "budget exceeded", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeExternal,
				Message: "provider call failed",
				Err:     errors.New("connection refused"),
			},
			wantMsg: "external: provider call failed (connection refused)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
				Err:     nil,
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	unwrapped := errors.Unwrap(domainErr)
	assert.Equal(t, baseErr, unwrapped)
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error type",
			err:    NewDomainError(ErrorTypeBudget, "over limit", nil),
			target: ErrBudgetExceeded,
			want:   true,
		},
		{
			name:   "different error type",
			err:    NewDomainError(ErrorTypeValidation, "validation", nil),
			target: ErrBudgetExceeded,
			want:   false,
		},
		{
			name:   "not a domain error",
			err:    NewDomainError(ErrorTypeBudget, "over limit", nil),
			target: errors.New("regular error"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeBudget, "budget exceeded", nil)

	err.WithDetail("tenant_id", "acme").WithDetail("remaining_usd", 0.0)

	assert.Equal(t, "acme", err.Details["tenant_id"])
	assert.Equal(t, 0.0, err.Details["remaining_usd"])
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation error", ErrInvalidInput, true},
		{"wrapped validation", fmt.Errorf("wrapped: %w", ErrEmptyPrompt), true},
		{"budget error", ErrBudgetExceeded, false},
		{"regular error", errors.New("regular"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidationError(tt.err))
		})
	}
}

func TestIsUnauthorizedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unauthorized error", ErrUnauthorized, true},
		{"invalid token", ErrInvalidToken, true},
		{"validation error", ErrInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnauthorizedError(tt.err))
		})
	}
}

func TestIsBudgetError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"budget error", ErrBudgetExceeded, true},
		{"tenant budget", ErrTenantBudgetExceeded, true},
		{"external error", ErrAllProvidersFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBudgetError(tt.err))
		})
	}
}

func TestIsExternalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"all providers failed", ErrAllProvidersFailed, true},
		{"provider unavailable", ErrProviderUnavailable, true},
		{"internal error", ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExternalError(tt.err))
		})
	}
}

func TestIsInternalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"internal error", ErrInternal, true},
		{"database error", ErrDatabaseError, true},
		{"external error", ErrProviderUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInternalError(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", ErrInvalidInput, ErrorTypeValidation},
		{"budget", ErrBudgetExceeded, ErrorTypeBudget},
		{"external", ErrAllProvidersFailed, ErrorTypeExternal},
		{"regular error", errors.New("regular"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)
	err.WithDetail("field", "task").WithDetail("reason", "unknown task type")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "task", details["field"])
	assert.Equal(t, "unknown task type", details["reason"])

	regularErr := errors.New("regular error")
	assert.Nil(t, GetErrorDetails(regularErr))
}

func TestWrapError(t *testing.T) {
	baseErr := errors.New("base error")
	wrapped := WrapError(ErrorTypeInternal, "wrapped message", baseErr)

	var domainErr *DomainError
	require.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, ErrorTypeInternal, domainErr.Type)
	assert.Equal(t, "wrapped message", domainErr.Message)
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}

func TestWrapInternal(t *testing.T) {
	baseErr := errors.New("database connection failed")
	wrapped := WrapInternal("failed to connect", baseErr)

	assert.True(t, IsInternalError(wrapped))
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}

func TestWrapExternal(t *testing.T) {
	baseErr := errors.New("openai api error")
	wrapped := WrapExternal("provider request failed", baseErr)

	assert.True(t, IsExternalError(wrapped))
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}
