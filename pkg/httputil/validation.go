package httputil

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
)

var validate = validator.New()

var (
	passkeyPattern       = regexp.MustCompile(`^\d{6}$`)
	signaturePattern     = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)
	contactNumberPattern = regexp.MustCompile(`^[0-9+\-\s()]{7,20}$`)

	weakPasskeys = map[string]struct{}{
		"000000": {},
		"111111": {},
		"123456": {},
	}
)

func init() {
	validate.RegisterValidation("passkey", func(fl validator.FieldLevel) bool {
		return passkeyPattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("strong_passkey", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if !passkeyPattern.MatchString(v) {
			return false
		}
		_, weak := weakPasskeys[v]
		return !weak
	})
	validate.RegisterValidation("qr_signature", func(fl validator.FieldLevel) bool {
		return signaturePattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("contact_number", func(fl validator.FieldLevel) bool {
		return contactNumberPattern.MatchString(fl.Field().String())
	})
}

// Validate validates a struct using go-playground/validator
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		details := make(map[string]string)

		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e)
		}

		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	case "passkey":
		return "must be exactly 6 digits"
	case "strong_passkey":
		return "must be 6 digits and not a common sequence"
	case "qr_signature":
		return "must be a 64-character hex signature"
	case "contact_number":
		return "must be 7-20 characters and contain valid phone symbols"
	case "gt":
		return "must be greater than " + e.Param()
	case "lte":
		return "must be at most " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	default:
		return "invalid value"
	}
}

// RegisterCustomValidation registers a custom validation function
func RegisterCustomValidation(tag string, fn validator.Func) error {
	return validate.RegisterValidation(tag, fn)
}
