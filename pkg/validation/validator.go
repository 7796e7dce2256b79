package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation limits
	MaxAddressLength = 64
	MaxCommandLength = 4096
	MaxTitleLength   = 200
	MaxTraits        = 32
	MaxTraitLength   = 50

	// Addresses are alphanumeric segments joined by dots: A1, A1.2, A1.2.1
	addressPattern = regexp.MustCompile(`^[A-Za-z0-9]+(\.[0-9]+)*$`)
	traitPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		return addressPattern.MatchString(fl.Field().String())
	})
}

// ProcessRecord is the validated shape of one parsed workflow line
type ProcessRecord struct {
	Address   string `json:"address" validate:"required,max=64,address"`
	Command   string `json:"command" validate:"required,max=4096"`
	Category  string `json:"category" validate:"omitempty,oneof=data computation io control crypto network ui error general"`
	Parent    string `json:"parent" validate:"omitempty,address"`
	Depth     int    `json:"depth" validate:"gte=0"`
	Direction string `json:"direction" validate:"omitempty,oneof=up down left right up-forward down-forward down-backward up-backward"`
}

// FunctionRecord is the validated shape of a function registry entry
type FunctionRecord struct {
	SegmentID string   `json:"segment_id" validate:"required,max=64"`
	Title     string   `json:"title" validate:"required,max=200"`
	Code      string   `json:"code" validate:"required"`
	Traits    []string `json:"traits" validate:"omitempty,max=32,dive,max=50"`
}

// ValidateProcessRecord validates a parsed process line
func ValidateProcessRecord(rec *ProcessRecord) error {
	if rec == nil {
		return errors.New("process record cannot be nil")
	}

	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}

	if rec.Parent != "" && rec.Depth == 0 {
		return fmt.Errorf("Depth: process %s has parent %s but depth 0", rec.Address, rec.Parent)
	}

	return nil
}

// ValidateFunctionRecord validates a function registry entry
func ValidateFunctionRecord(rec *FunctionRecord) error {
	if rec == nil {
		return errors.New("function record cannot be nil")
	}

	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}

	for i, trait := range rec.Traits {
		if err := ValidateTrait(trait); err != nil {
			return fmt.Errorf("Traits: trait at index %d: %w", i, err)
		}
	}

	return nil
}

// ValidateAddress checks a single workflow address
func ValidateAddress(addr string) error {
	if addr == "" {
		return errors.New("address cannot be empty")
	}
	if len(addr) > MaxAddressLength {
		return fmt.Errorf("address '%s' exceeds maximum length of %d characters", addr, MaxAddressLength)
	}
	if !addressPattern.MatchString(addr) {
		return fmt.Errorf("address '%s' is invalid (alphanumeric, optionally followed by .N segments)", addr)
	}
	return nil
}

// ValidateTrait checks a single function trait
func ValidateTrait(trait string) error {
	if trait == "" {
		return errors.New("trait cannot be empty")
	}
	if len(trait) > MaxTraitLength {
		return fmt.Errorf("trait '%s' exceeds maximum length of %d characters", trait, MaxTraitLength)
	}
	if !traitPattern.MatchString(trait) {
		return fmt.Errorf("trait '%s' contains invalid characters (only alphanumeric, '_' and '-' allowed)", trait)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Report the first failure only
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "address":
			return fmt.Errorf("%s: '%v' is not a valid address", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
