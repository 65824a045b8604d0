package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/fmueller/voxd/internal/catalog"
	"github.com/go-playground/validator/v10"
)

// ErrInvalid matches every validation failure returned by Validate and Load.
var ErrInvalid = errors.New("invalid config")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		})
		_ = validate.RegisterValidation("model", func(fl validator.FieldLevel) bool {
			_, ok := catalog.Lookup(fl.Field().String())
			return ok
		})
	})
	return validate
}

// Validate reports every invalid setting in one error.
func (c Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Field()+": "+formatFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must not be negative"
	case "model":
		return fmt.Sprintf("%q is not a known model (known: %s)", e.Value(), strings.Join(catalog.KnownNames(), ", "))
	default:
		return "is invalid"
	}
}
