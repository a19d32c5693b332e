package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConflict, "endpoint already registered")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeConflict {
		t.Errorf("expected code %s, got %s", ErrCodeConflict, err.Code)
	}
	if err.Message != "endpoint already registered" {
		t.Errorf("expected message 'endpoint already registered', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInitialization, "container init failed", cause)

	if err.Code != ErrCodeInitialization {
		t.Errorf("expected code %s, got %s", ErrCodeInitialization, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("boom")
	ctx := map[string]any{
		"endpoint": "orders",
		"phase":    3,
	}

	err := WrapWithContext(ErrCodeInitialization, "container init failed", cause, ctx)

	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["endpoint"] != "orders" {
		t.Errorf("expected endpoint to be orders")
	}
}

func TestNewWithContext(t *testing.T) {
	err := NewWithContext(ErrCodeInvalidState, "phase mismatch", map[string]any{"registry": 1, "container": 2})
	if err.Cause != nil {
		t.Errorf("expected nil cause")
	}
	if err.Context["container"] != 2 {
		t.Errorf("expected container phase in context")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeNotFound, "not found"),
			expected: "[NOT_FOUND] not found",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrCodeInternal, "wrapped", cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Errorf("expected unwrapped error to be original cause")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: errors.New("plain"), want: ""},
		{name: "structured", err: New(ErrCodeConflict, "dup"), want: ErrCodeConflict},
		{name: "wrapped by fmt", err: fmt.Errorf("outer: %w", New(ErrCodeTimeout, "slow")), want: ErrCodeTimeout},
		{
			name: "outermost wins",
			err:  Wrap(ErrCodeInvalidState, "flush failed", New(ErrCodeConflict, "dup")),
			want: ErrCodeInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
			if tt.want != "" && !IsCode(tt.err, tt.want) {
				t.Errorf("IsCode(%q) = false, want true", tt.want)
			}
		})
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeNotFound,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeInvalidRequest,
		ErrCodeInvalidState,
		ErrCodeConflict,
		ErrCodeInitialization,
		ErrCodeRateLimitExceeded,
		ErrCodeMethodNotAllowed,
		ErrCodeUnavailable,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("error code should not be empty: %v", code)
		}
	}
}
