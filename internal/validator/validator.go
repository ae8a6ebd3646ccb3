package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes a single failed field validation
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field errors for a whole request
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator wraps go-playground struct validation with domain rules
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	v := &Validator{validate: validate}
	v.registerDomainRules()

	return v
}

// Validate runs struct tag validation and converts the result
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Var validates a single value against a tag expression
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func (v *Validator) registerDomainRules() {
	// Time limits are minutes; CFA mock sessions top out at six hours
	_ = v.validate.RegisterValidation("exam_time_limit", func(fl validator.FieldLevel) bool {
		minutes := fl.Field().Int()
		return minutes >= 1 && minutes <= 360
	})

	// Percentage thresholds
	_ = v.validate.RegisterValidation("score_percent", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})
}

// ToValidationErrors converts go-playground errors into the API shape
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{
			Field:   "request",
			Message: err.Error(),
			Rule:    "invalid",
		}}
	}

	result := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		result = append(result, ValidationError{
			Field:   toSnakeCase(fe.Field()),
			Message: messageForTag(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return result
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "exam_time_limit":
		return "must be between 1 and 360 minutes"
	case "score_percent":
		return "must be between 0 and 100"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

func toSnakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
