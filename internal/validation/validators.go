package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/vizflow/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return models.TaskStatus(fl.Field().String()).Valid()
}

func validatePriority(fl validator.FieldLevel) bool {
	return models.Priority(fl.Field().String()).Valid()
}

// Struct validates s and flattens the first few failures into one readable error
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "task_status":
		return fmt.Sprintf("%s must be one of TODO, IN_PROGRESS, REVIEW, DONE", field)
	case "priority":
		return fmt.Sprintf("%s must be one of LOW, MEDIUM, HIGH, CRITICAL", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	if !models.TaskStatus(value).Valid() {
		return fmt.Errorf("invalid status: %s (must be 'TODO', 'IN_PROGRESS', 'REVIEW', or 'DONE')", value)
	}
	return nil
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	if !models.Priority(value).Valid() {
		return fmt.Errorf("invalid priority: %s (must be 'LOW', 'MEDIUM', 'HIGH', or 'CRITICAL')", value)
	}
	return nil
}
