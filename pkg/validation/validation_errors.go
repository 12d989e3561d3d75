package validation

import (
	"errors"
	"fmt"
	"strings"

	"candidate-tracker-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to the names clients send
var FieldLabels = map[string]string{
	"FullName":      "full_name",
	"Email":         "email",
	"Status":        "status",
	"Position":      "position",
	"Experience":    "experience",
	"Notes":         "notes",
	"InterviewDate": "interview_date",
	"ID":            "created_by",
}

// FormatValidationErrors converts validator.ValidationErrors to one message per violated field
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		switch e.Field() {
		case "FullName":
			return "full_name: Please add candidate full name"
		case "Email":
			return "email: Please add an email"
		case "Position":
			return "position: Please specify the position"
		}
		return fmt.Sprintf("%s: is required", label)

	case "min", "gte":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s: must be at least %s", label, param)

	case "max", "lte":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: must be at most %s characters", label, param)
		}
		return fmt.Sprintf("%s: must be at most %s", label, param)

	case "candidate_email", "email":
		return fmt.Sprintf("%s: Please add a valid email", label)

	case "candidate_status", "oneof":
		return fmt.Sprintf("%s: must be one of: %s", label, strings.Join(domain.CandidateStatuses, ", "))

	case "valid_name":
		return fmt.Sprintf("%s: may only contain letters, digits, spaces and . ' - / & ( ) ,", label)

	case "no_emoji":
		return fmt.Sprintf("%s: must not contain emoji or special symbols", label)

	default:
		return fmt.Sprintf("%s: failed validation (%s)", label, e.Tag())
	}
}

func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return toSnakeCase(fieldName)
}

// toSnakeCase converts CamelCase to snake_case
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
