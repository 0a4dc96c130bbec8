package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
	messages  map[string]string
}

func NewValidator() *CustomValidator {
	v := validator.New()
	// report fields by their json name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &CustomValidator{
		validator: v,
		messages:  make(map[string]string),
	}
}

// RegisterStringRule adds a tag backed by fn. message is appended to the
// field name when the rule fails. Empty values pass; combine with required.
func (cv *CustomValidator) RegisterStringRule(tag string, fn func(string) bool, message string) error {
	err := cv.validator.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		return fn(s)
	})
	if err != nil {
		return err
	}
	cv.messages[tag] = message
	return nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			field := e.Field()
			if msg, ok := cv.messages[e.Tag()]; ok {
				errs[field] = field + " " + msg
				continue
			}
			switch e.Tag() {
			case "required":
				errs[field] = field + " is required"
			case "min":
				errs[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errs[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errs[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errs[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				errs[field] = field + " must be one of: " + e.Param()
			case "datetime":
				errs[field] = field + " must match " + e.Param()
			default:
				errs[field] = field + " is invalid"
			}
		}
	}

	return errs
}
