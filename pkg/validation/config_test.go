package validation

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidator_Required(t *testing.T) {
	cv := NewConfigValidator("store")
	cv.Required("path", "")

	if !cv.HasErrors() {
		t.Error("Expected error for empty required field")
	}

	cv2 := NewConfigValidator("store")
	cv2.Required("path", "legend.json")

	if cv2.HasErrors() {
		t.Error("Expected no error for non-empty required field")
	}
}

func TestConfigValidator_RangeInt(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		min       int
		max       int
		expectErr bool
	}{
		{"below range", 0, 1, 360, true},
		{"at min", 1, 1, 360, false},
		{"inside range", 10, 1, 360, false},
		{"at max", 360, 1, 360, false},
		{"above range", 361, 1, 360, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("spiral").RangeInt("base", tt.value, tt.min, tt.max)
			if cv.HasErrors() != tt.expectErr {
				t.Errorf("RangeInt(%d, %d, %d) error = %v, want %v", tt.value, tt.min, tt.max, cv.HasErrors(), tt.expectErr)
			}
		})
	}
}

func TestConfigValidator_Floats(t *testing.T) {
	if !NewConfigValidator("spiral").PositiveFloat("radius", 0).HasErrors() {
		t.Error("Expected error for zero radius")
	}
	if NewConfigValidator("spiral").PositiveFloat("radius", 1.5).HasErrors() {
		t.Error("Expected no error for positive radius")
	}
	if !NewConfigValidator("legend").NonNegativeFloat("tolerance", -0.1).HasErrors() {
		t.Error("Expected error for negative tolerance")
	}
	if NewConfigValidator("legend").NonNegativeFloat("tolerance", 0).HasErrors() {
		t.Error("Expected no error for zero tolerance")
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	allowed := []string{"substring", "token"}

	if NewConfigValidator("router").OneOf("strategy", "token", allowed).HasErrors() {
		t.Error("Expected no error for allowed value")
	}
	if !NewConfigValidator("router").OneOf("strategy", "regex", allowed).HasErrors() {
		t.Error("Expected error for disallowed value")
	}
}

func TestConfigValidator_MinDuration(t *testing.T) {
	if !NewConfigValidator("server").MinDuration("shutdown_timeout", time.Millisecond, time.Second).HasErrors() {
		t.Error("Expected error for duration below minimum")
	}
}

func TestConfigValidator_WhenAndCustom(t *testing.T) {
	sentinel := errors.New("bucket missing")

	cv := NewConfigValidator("store").
		When(false, func(cv *ConfigValidator) { cv.Required("s3.bucket", "") }).
		When(true, func(cv *ConfigValidator) {
			cv.Custom("s3", func() error { return sentinel })
		})

	if len(cv.Errors()) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(cv.Errors()))
	}
	if !errors.Is(cv.Validate(), sentinel) {
		t.Errorf("Expected Validate to wrap the custom error, got %v", cv.Validate())
	}
}

func TestConfigValidator_ValidateJoinsErrors(t *testing.T) {
	cv := NewConfigValidator("cfg").
		Required("a", "").
		Positive("b", 0)

	err := cv.Validate()
	if err == nil {
		t.Fatal("Expected combined error")
	}
	want := "cfg.a: required field is empty\ncfg.b: value 0 must be positive"
	if err.Error() != want {
		t.Errorf("Validate() = %q, want %q", err.Error(), want)
	}

	if NewConfigValidator("cfg").Validate() != nil {
		t.Error("Expected nil for no errors")
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr("", "substring"); got != "substring" {
		t.Errorf("DefaultOr(\"\") = %q", got)
	}
	if got := DefaultOr(5, 10); got != 5 {
		t.Errorf("DefaultOr(5) = %d", got)
	}
}
