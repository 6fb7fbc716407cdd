// Package validation builds the go-playground validator shared by every domain and turns
// its errors into field/message pairs the API can return.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"mentorhub/pkg/timeofday"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(e), strings.Join(messages, "; "))
}

// Details renders the errors for apperrors.Validation.
func (e Errors) Details() map[string]any {
	fields := make([]map[string]string, 0, len(e))
	for _, err := range e {
		fields = append(fields, map[string]string{"field": err.Field, "message": err.Message})
	}
	return map[string]any{"errors": fields}
}

// Prefix qualifies every field, e.g. "start_time" becomes "rules[2].start_time".
func (e Errors) Prefix(prefix string) Errors {
	out := make(Errors, len(e))
	for i, err := range e {
		out[i] = FieldError{Field: prefix + "." + err.Field, Message: err.Message}
	}
	return out
}

// New returns a validator that reports JSON field names and knows the hhmm and
// calendar_date tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeofday.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		return timeofday.IsValidDate(fl.Field().String())
	})

	return v
}

// Struct validates s and returns Errors for constraint failures.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return Translate(validationErrs)
	}
	return err
}

func Translate(errs validator.ValidationErrors) Errors {
	out := make(Errors, 0, len(errs))

	for _, err := range errs {
		field := err.Field()
		message := err.Error()

		switch err.Tag() {
		case "required", "required_with":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", field)
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		case "hhmm":
			message = fmt.Sprintf("%s must be a time in HH:MM format", field)
		case "calendar_date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
		case "timezone":
			message = fmt.Sprintf("%s must be an IANA timezone such as Europe/London", field)
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", field)
		}

		out = append(out, FieldError{Field: field, Message: message})
	}

	return out
}
