package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrClosed", ErrClosed, "resource is closed"},
		{"ErrTimeout", ErrTimeout, "operation timed out"},
		{"ErrCapacityExceeded", ErrCapacityExceeded, "capacity exceeded"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrCanceled", ErrCanceled, "processing canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("error should not be nil")
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "engine",
				Field:  "chunkSize",
				Value:  -1,
				Reason: "must be positive",
			},
			want: "engine: invalid chunkSize=-1 (must be positive)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "cache",
				Field:  "capacity",
				Value:  0,
				Reason: "must be positive",
				Hint:   "use a value greater than 0",
			},
			want: "cache: invalid capacity=0 (must be positive) - use a value greater than 0",
		},
		{
			name: "string value",
			err: &ValidationError{
				Module: "janitor",
				Field:  "cron",
				Value:  "",
				Reason: "cannot be empty",
			},
			want: "janitor: invalid cron= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := &ValidationError{
		Module: "test",
		Field:  "field",
		Value:  0,
		Reason: "test",
	}

	unwrapped := verr.Unwrap()
	if unwrapped != ErrInvalidConfiguration {
		t.Errorf("Unwrap() = %v, want ErrInvalidConfiguration", unwrapped)
	}

	if !errors.Is(verr, ErrInvalidConfiguration) {
		t.Error("ValidationError should wrap ErrInvalidConfiguration")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("module", "field", 123, "test reason")

	if err.Module != "module" {
		t.Errorf("Module = %q, want %q", err.Module, "module")
	}
	if err.Field != "field" {
		t.Errorf("Field = %q, want %q", err.Field, "field")
	}
	if err.Value != 123 {
		t.Errorf("Value = %v, want %v", err.Value, 123)
	}
	if err.Reason != "test reason" {
		t.Errorf("Reason = %q, want %q", err.Reason, "test reason")
	}
	if err.Hint != "" {
		t.Errorf("Hint = %q, want empty string", err.Hint)
	}
}

func TestValidationError_WithHint(t *testing.T) {
	err := NewValidationError("test", "field", 0, "invalid").
		WithHint("try using a positive value")

	if err.Hint != "try using a positive value" {
		t.Errorf("Hint = %q, want %q", err.Hint, "try using a positive value")
	}

	// Should return same instance for chaining
	result := err.WithHint("new hint")
	if result != err {
		t.Error("WithHint should return the same instance")
	}
}

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{
			name: "without context",
			err: &OperationError{
				Module:    "engine",
				Operation: "Process",
				Cause:     errors.New("processor failed"),
			},
			want: "engine.Process failed: processor failed",
		},
		{
			name: "with context",
			err: &OperationError{
				Module:    "distributed",
				Operation: "Set",
				Cause:     errors.New("connection refused"),
				Context:   "redis unreachable",
			},
			want: "distributed.Set failed: connection refused (redis unreachable)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	opErr := &OperationError{
		Module:    "test",
		Operation: "test",
		Cause:     cause,
	}

	unwrapped := opErr.Unwrap()
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(opErr, cause) {
		t.Error("OperationError should wrap the cause error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout error", ErrTimeout, true},
		{"capacity exceeded", ErrCapacityExceeded, true},
		{"closed error", ErrClosed, false},
		{"canceled error", ErrCanceled, false},
		{"random error", errors.New("random"), false},
		{"wrapped timeout", &OperationError{Cause: ErrTimeout}, true},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ErrCanceled", ErrCanceled, true},
		{"context.Canceled", context.Canceled, true},
		{"context.DeadlineExceeded", context.DeadlineExceeded, true},
		{"wrapped ErrCanceled", fmt.Errorf("process: %w", ErrCanceled), true},
		{"timeout error", ErrTimeout, false},
		{"random error", errors.New("random"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanceled(tt.err); got != tt.want {
				t.Errorf("IsCanceled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			"validation error",
			&ValidationError{Module: "test", Field: "field", Value: 0, Reason: "test"},
			true,
		},
		{
			"wrapped validation error",
			&OperationError{Cause: &ValidationError{Module: "test", Field: "field", Value: 0, Reason: "test"}},
			true,
		},
		{"operation error", &OperationError{Cause: errors.New("test")}, false},
		{"standard error", errors.New("test"), false},
		{"timeout error", ErrTimeout, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.want {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Run("ValidationError message components", func(t *testing.T) {
		err := NewValidationError("mymodule", "myfield", 42, "must be less than 10").
			WithHint("use a value between 0 and 10")

		msg := err.Error()

		expectedParts := []string{"mymodule", "myfield", "42", "must be less than 10", "use a value between 0 and 10"}
		for _, part := range expectedParts {
			if !strings.Contains(msg, part) {
				t.Errorf("error message should contain %q, got %q", part, msg)
			}
		}
	})

	t.Run("OperationError message components", func(t *testing.T) {
		err := NewOperationError("mymodule", "MyOp", errors.New("connection refused")).
			WithContext("server unreachable")

		msg := err.Error()

		expectedParts := []string{"mymodule", "MyOp", "connection refused", "server unreachable"}
		for _, part := range expectedParts {
			if !strings.Contains(msg, part) {
				t.Errorf("error message should contain %q, got %q", part, msg)
			}
		}
	})
}
