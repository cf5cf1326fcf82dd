package recommend

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationMessage flattens validator errors into one human-readable
// message for the error envelope.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid request"
	}

	var messages []string
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		case "max":
			message = fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
		case "len":
			message = fmt.Sprintf("%s must have exactly %s entries", field, fe.Param())
		case "gte", "lte":
			message = fmt.Sprintf("%s must be between the allowed bounds", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		messages = append(messages, message)
	}
	return strings.Join(messages, "; ")
}
