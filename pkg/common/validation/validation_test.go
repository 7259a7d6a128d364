package validation

import (
	"testing"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"positive", 10, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePositive(%d) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !cferrors.IsValidationError(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"positive", 1.5, false},
		{"zero", 0, false},
		{"negative", -0.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("test", "field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNonNegative(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePositiveFloat(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"positive", 0.2, false},
		{"zero", 0, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveFloat("test", "field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePositiveFloat(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	if err := ValidateNotNil("test", "field", 42); err != nil {
		t.Errorf("unexpected error for non-nil value: %v", err)
	}
	if err := ValidateNotNil("test", "field", nil); err == nil {
		t.Error("expected error for nil value")
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("test", "field", "value"); err != nil {
		t.Errorf("unexpected error for non-empty string: %v", err)
	}
	if err := ValidateNotEmpty("test", "field", ""); err == nil {
		t.Error("expected error for empty string")
	}
}
