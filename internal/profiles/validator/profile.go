package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"detailbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

var reClock = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

// Details renders the errors as a field to message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, e := range v {
		details[e.Field] = e.Message
	}
	return details
}

type ProfileValidator struct {
	validate *validator.Validate
}

func NewProfileValidator() *ProfileValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("clock", validateClock)
	_ = v.RegisterValidation("unique_days", validateUniqueDays)
	v.RegisterStructValidation(validateHoursEntry, model.BusinessHours{})

	return &ProfileValidator{
		validate: v,
	}
}

func (v *ProfileValidator) Validate(p *model.BusinessProfile) error {
	if err := v.validate.Struct(p); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// validateClock accepts 24-hour "HH:MM".
func validateClock(fl validator.FieldLevel) bool {
	return reClock.MatchString(fl.Field().String())
}

func validateUniqueDays(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.Slice {
		return false
	}

	seen := make(map[string]struct{}, field.Len())
	for i := 0; i < field.Len(); i++ {
		hours, ok := field.Index(i).Interface().(model.BusinessHours)
		if !ok {
			return false
		}
		day := strings.ToLower(hours.Day)
		if _, dup := seen[day]; dup {
			return false
		}
		seen[day] = struct{}{}
	}
	return true
}

// validateHoursEntry requires an open window on days that are not closed.
func validateHoursEntry(sl validator.StructLevel) {
	h := sl.Current().Interface().(model.BusinessHours)
	if h.Closed {
		return
	}
	if h.Open == "" {
		sl.ReportError(h.Open, "open", "Open", "required_open", "")
	}
	if h.Close == "" {
		sl.ReportError(h.Close, "close", "Close", "required_open", "")
	}
	if reClock.MatchString(h.Open) && reClock.MatchString(h.Close) && h.Open >= h.Close {
		sl.ReportError(h.Close, "close", "Close", "after_open", "")
	}
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	validationErrors := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(err.Namespace()),
			Message: message(err),
		})
	}
	return validationErrors
}

// fieldPath drops the root struct name: "BusinessProfile.business_hours[0].open"
// becomes "business_hours[0].open".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "required_open":
		return "is required unless the day is closed"
	case "after_open":
		return "must be later than open"
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", err.Param())
		}
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s entries", err.Param())
		}
		return fmt.Sprintf("must be at most %s", err.Param())
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be a valid phone number"
	case "url":
		return "must be a valid URL"
	case "timezone":
		return "must be a valid IANA time zone"
	case "mongodb":
		return "must be a valid ID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "clock":
		return "must be a time in HH:MM format"
	case "unique_days":
		return "must not repeat a day"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}
