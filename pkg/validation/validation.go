package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// phoneRegexp accepts E.164-style numbers with an optional leading plus.
var phoneRegexp = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// RegisterCustomValidators installs domain validation rules on gin's
// binding engine. Call once at startup.
func RegisterCustomValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}

	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegexp.MatchString(fl.Field().String())
	})
}

// Describe turns a binding error into client-readable messages. Errors that
// are not validation errors yield a single generic message.
func Describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"malformed request body"}
	}

	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, message(e))
	}
	return messages
}

func message(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be empty", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	default:
		return fmt.Sprintf("%s is not valid", field)
	}
}
