package types

import (
	"github.com/go-playground/validator/v10"
)

// RegisterPatternValidation adds the `pattern` tag. check reports a syntax error
// in a single format pattern.
func RegisterPatternValidation(v *validator.Validate, check func(string) error) {
	v.RegisterValidation("pattern", func(fl validator.FieldLevel) bool {
		pattern := fl.Field().String()
		if pattern == "" {
			return false
		}
		return check(pattern) == nil
	})
}
