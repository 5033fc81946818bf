package errors

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	expected := "INVALID_INPUT: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeInternal, "wrapped error", 500)

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}

	if !strings.Contains(err.Error(), "original error") {
		t.Errorf("Error() should contain cause, got: %v", err.Error())
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	err.WithContext("resource_id", "post-1").WithContext("attempts", 2)

	if err.Context["resource_id"] != "post-1" {
		t.Errorf("Context[resource_id] = %v, want 'post-1'", err.Context["resource_id"])
	}
	if err.Context["attempts"] != 2 {
		t.Errorf("Context[attempts] = %v, want 2", err.Context["attempts"])
	}
}

func TestBusinessDenialConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   ErrorCode
		wantStatus int
	}{
		{"not authenticated", NewNotAuthenticatedError(), ErrCodeNotAuthenticated, http.StatusUnauthorized},
		{"no entitlement", NewNoEntitlementError("subscribe to unlock"), ErrCodeNoEntitlement, http.StatusForbidden},
		{"resource unavailable", NewResourceUnavailableError(), ErrCodeResourceUnavailable, http.StatusNotFound},
		{"invalid binding", NewInvalidBindingError(), ErrCodeInvalidBinding, http.StatusForbidden},
		{"rate limit", NewRateLimitError(), ErrCodeRateLimit, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %v, want %v", tt.err.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestOperatorFacingConstructors(t *testing.T) {
	cfgErr := NewConfigurationError("signing key missing")
	if cfgErr.Code != ErrCodeConfiguration {
		t.Errorf("Code = %v, want %v", cfgErr.Code, ErrCodeConfiguration)
	}
	if cfgErr.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %v, want 500", cfgErr.HTTPStatus)
	}

	cause := errors.New("dial tcp: connection refused")
	provErr := NewProviderUnavailableError(cause)
	if provErr.Code != ErrCodeProviderUnavailable {
		t.Errorf("Code = %v, want %v", provErr.Code, ErrCodeProviderUnavailable)
	}
	if provErr.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatus = %v, want 503", provErr.HTTPStatus)
	}
	if !errors.Is(provErr, cause) {
		t.Errorf("expected provider error to wrap cause")
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewNoEntitlementError("subscribe to unlock")

	if got := GetAppError(appErr); got != appErr {
		t.Errorf("GetAppError() = %v, want %v", got, appErr)
	}

	wrapped := WrapError(appErr, ErrCodeInternal, "outer", 500)
	if got := GetAppError(wrapped); got != wrapped {
		t.Errorf("GetAppError() on wrapped = %v, want outer error", got)
	}

	if got := GetAppError(errors.New("plain")); got != nil {
		t.Errorf("GetAppError() on plain error = %v, want nil", got)
	}

	if got := GetAppError(nil); got != nil {
		t.Errorf("GetAppError(nil) = %v, want nil", got)
	}
}
