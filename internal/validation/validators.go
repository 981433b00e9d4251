package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators
	// These should never fail in normal operation, but panic loudly if they do
	if err := Validate.RegisterValidation("hosted_domain", validateHostedDomain); err != nil {
		panic(fmt.Sprintf("failed to register hosted_domain validator: %v", err))
	}
}

// validateHostedDomain validates a Google Workspace hosted domain value:
// lowercase DNS labels joined by dots, no scheme, no path.
func validateHostedDomain(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" || len(value) > 253 {
		return false
	}

	for _, label := range strings.Split(value, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, r := range label {
			isLower := r >= 'a' && r <= 'z'
			isDigit := r >= '0' && r <= '9'
			if !isLower && !isDigit && r != '-' {
				return false
			}
		}
	}

	return true
}
