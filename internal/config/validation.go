package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	slideserrors "github.com/conneroisu/slides/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their config key rather than the Go field name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	return v
}

// Validate checks a resolved Settings value and reports the first violation
// as a config parse error.
func Validate(s *Settings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return slideserrors.Wrap(err, slideserrors.KindConfigParse,
			slideserrors.ErrCodeInvalidValue, "invalid settings")
	}

	fe := verrs[0]
	key := strings.SplitN(fe.Field(), "[", 2)[0]

	return slideserrors.NewConfigParseError(slideserrors.ErrCodeInvalidValue,
		describe(fe)).WithKey(key)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if strings.Contains(fe.Field(), "[") {
			return "list contains an empty entry"
		}
		return "value must not be empty"
	case "min":
		if fe.Field() == KeySources {
			return "no sources given"
		}
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("invalid value %q, must be one of: %s",
			fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
