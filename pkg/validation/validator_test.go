package validation

import (
	"strings"
	"testing"
)

// TestValidateProcessRecord tests process record validation
func TestValidateProcessRecord(t *testing.T) {
	tests := []struct {
		name        string
		rec         ProcessRecord
		expectError bool
		errorField  string
	}{
		{
			name:        "Valid top-level process",
			rec:         ProcessRecord{Address: "A1", Command: "load input", Category: "data", Direction: "up"},
			expectError: false,
		},
		{
			name:        "Valid subprocess",
			rec:         ProcessRecord{Address: "A1.2", Command: "validate", Parent: "A1", Depth: 1},
			expectError: false,
		},
		{
			name:        "Missing address - invalid",
			rec:         ProcessRecord{Command: "noop"},
			expectError: true,
			errorField:  "Address",
		},
		{
			name:        "Address with spaces - invalid",
			rec:         ProcessRecord{Address: "A 1", Command: "noop"},
			expectError: true,
			errorField:  "Address",
		},
		{
			name:        "Missing command - invalid",
			rec:         ProcessRecord{Address: "A1"},
			expectError: true,
			errorField:  "Command",
		},
		{
			name:        "Unknown category - invalid",
			rec:         ProcessRecord{Address: "A1", Command: "x", Category: "quantum"},
			expectError: true,
			errorField:  "Category",
		},
		{
			name:        "Negative depth - invalid",
			rec:         ProcessRecord{Address: "A1", Command: "x", Depth: -1},
			expectError: true,
			errorField:  "Depth",
		},
		{
			name:        "Parent with zero depth - invalid",
			rec:         ProcessRecord{Address: "A1.1", Command: "x", Parent: "A1"},
			expectError: true,
			errorField:  "Depth",
		},
		{
			name:        "Unknown direction - invalid",
			rec:         ProcessRecord{Address: "A1", Command: "x", Direction: "sideways"},
			expectError: true,
			errorField:  "Direction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProcessRecord(&tt.rec)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorField != "" && !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("Expected error for field %s, got: %v", tt.errorField, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestValidateProcessRecord_Nil(t *testing.T) {
	if err := ValidateProcessRecord(nil); err == nil {
		t.Error("Expected error for nil record")
	}
}

// TestValidateFunctionRecord tests function registry record validation
func TestValidateFunctionRecord(t *testing.T) {
	tests := []struct {
		name        string
		rec         FunctionRecord
		expectError bool
		errorField  string
	}{
		{
			name:        "Valid function",
			rec:         FunctionRecord{SegmentID: "seg-1", Title: "Greeter", Code: "print('hi')", Traits: []string{"io", "pure_fn"}},
			expectError: false,
		},
		{
			name:        "Missing title - invalid",
			rec:         FunctionRecord{SegmentID: "seg-1", Code: "x"},
			expectError: true,
			errorField:  "Title",
		},
		{
			name:        "Missing code - invalid",
			rec:         FunctionRecord{SegmentID: "seg-1", Title: "t"},
			expectError: true,
			errorField:  "Code",
		},
		{
			name:        "Trait with spaces - invalid",
			rec:         FunctionRecord{SegmentID: "seg-1", Title: "t", Code: "x", Traits: []string{"bad trait"}},
			expectError: true,
			errorField:  "Traits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFunctionRecord(&tt.rec)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorField != "" && !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("Expected error for field %s, got: %v", tt.errorField, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	valid := []string{"A1", "abc", "A1.2", "Z9.10.3"}
	for _, addr := range valid {
		if err := ValidateAddress(addr); err != nil {
			t.Errorf("Expected %q to be valid, got: %v", addr, err)
		}
	}

	invalid := []string{"", "A-1", "A1.", "A1.x", strings.Repeat("a", MaxAddressLength+1)}
	for _, addr := range invalid {
		if err := ValidateAddress(addr); err == nil {
			t.Errorf("Expected %q to be invalid", addr)
		}
	}
}
