package mindmap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator registers "nonempty", which rejects whitespace-only strings.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// ValidationError is one failed validate tag, phrased for the model to fix.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationResult collects the failures of one ValidateStruct call.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ErrorSummary joins the messages with "; ". It is empty for a valid result.
func (r ValidationResult) ErrorSummary() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// ValidateStruct checks s against its validate tags.
func ValidateStruct(s any) ValidationResult {
	err := validate.Struct(s)
	if err == nil {
		return ValidationResult{Valid: true}
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationResult{Errors: []ValidationError{{Tag: "invalid", Message: err.Error()}}}
	}
	res := ValidationResult{Errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		res.Errors = append(res.Errors, ValidationError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: describe(fe),
		})
	}
	return res
}

// ValidURL reports whether raw is an absolute URL.
func ValidURL(raw string) bool {
	return validate.Var(raw, "required,url") == nil
}

func describe(fe validator.FieldError) string {
	name := fe.Namespace()
	unit := "items"
	if fe.Kind() == reflect.String {
		unit = "characters"
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "nonempty":
		return name + " cannot be empty or whitespace"
	case "min":
		return fmt.Sprintf("%s needs at least %s %s", name, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s allows at most %s %s", name, fe.Param(), unit)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "url":
		return name + " must be an absolute URL"
	}
	return fmt.Sprintf("%s failed %q", name, fe.Tag())
}
