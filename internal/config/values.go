package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	slideserrors "github.com/conneroisu/slides/internal/errors"
)

// SplitList splits a comma- or newline-separated value into trimmed,
// non-empty tokens. Empty fragments such as a trailing comma are dropped, so
// a value made only of separators yields an empty list.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}

	return out
}

// ParseBool accepts true/false, yes/no, on/off and 1/0, ignoring case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}

	return false, fmt.Errorf("invalid boolean %q", s)
}

// toList flattens a raw value (a string or a list of scalars) into tokens.
func toList(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case string:
		return SplitList(v), nil
	case []string:
		out := []string{}
		for _, item := range v {
			out = append(out, SplitList(item)...)
		}
		return out, nil
	case []interface{}:
		out := []string{}
		for _, item := range v {
			s, err := cast.ToStringE(item)
			if err != nil {
				return nil, err
			}
			out = append(out, SplitList(s)...)
		}
		return out, nil
	}

	s, err := cast.ToStringE(raw)
	if err != nil {
		return nil, err
	}

	return SplitList(s), nil
}

// coerce converts a raw config value into the Go type the option expects:
// string, bool, []string or Linenos.
func coerce(opt Option, raw interface{}) (interface{}, error) {
	switch opt.Type {
	case TypeBool:
		if s, ok := raw.(string); ok {
			return ParseBool(s)
		}
		return cast.ToBoolE(raw)
	case TypeList:
		return toList(raw)
	case TypeEnum:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		v, err := ParseLinenos(s)
		if err != nil {
			return nil, err
		}
		return string(v), nil
	default:
		if _, nested := raw.(map[string]interface{}); nested {
			return nil, fmt.Errorf("expected a scalar, got a table")
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(s), nil
	}
}

// coerceError wraps a coercion failure as a parse error on key.
func coerceError(key string, err error) *slideserrors.Error {
	var e *slideserrors.Error
	if errors.As(err, &e) {
		return e.WithKey(key)
	}

	return slideserrors.Wrap(err, slideserrors.KindConfigParse, slideserrors.ErrCodeInvalidValue,
		"invalid value").WithKey(key)
}
