// Package errors defines the structured errors returned while resolving a
// presentation: reading and parsing configuration, and discovering source
// documents. Every failure carries a Kind so callers can branch on the
// category without string matching.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind represents the category of a resolution failure.
type Kind string

const (
	KindConfigRead       Kind = "config_read"
	KindConfigParse      Kind = "config_parse"
	KindSourceNotFound   Kind = "source_not_found"
	KindSourceUnreadable Kind = "source_unreadable"
)

// Common error codes.
const (
	ErrCodeConfigMissing    = "ERR_CONFIG_MISSING"
	ErrCodeConfigUnreadable = "ERR_CONFIG_UNREADABLE"
	ErrCodeConfigSyntax     = "ERR_CONFIG_SYNTAX"
	ErrCodeUnknownKey       = "ERR_UNKNOWN_KEY"
	ErrCodeInvalidValue     = "ERR_INVALID_VALUE"
	ErrCodeInvalidEncoding  = "ERR_INVALID_ENCODING"
	ErrCodeSourceNotFound   = "ERR_SOURCE_NOT_FOUND"
	ErrCodeNotDocument      = "ERR_NOT_DOCUMENT"
	ErrCodePermissionDenied = "ERR_PERMISSION_DENIED"
	ErrCodeDirectoryListing = "ERR_DIRECTORY_LISTING"
)

// Error is a structured resolution error with location and cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Path    string
	Line    int
	Key     string
	Cause   error
	Hints   []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		location := e.Path
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	if e.Key != "" {
		parts = append(parts, "key:"+e.Key)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports kind equality, and code equality when the target sets one.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}

	return t.Code == "" || e.Code == t.Code
}

// WithLine records the 1-based line the error was found on.
func (e *Error) WithLine(line int) *Error {
	e.Line = line

	return e
}

// WithKey records the configuration key involved.
func (e *Error) WithKey(key string) *Error {
	e.Key = key

	return e
}

// WithHint appends a human readable hint.
func (e *Error) WithHint(hint string) *Error {
	e.Hints = append(e.Hints, hint)

	return e
}

// Sentinel values usable with errors.Is to test only the kind.
var (
	ErrConfigRead       = &Error{Kind: KindConfigRead}
	ErrConfigParse      = &Error{Kind: KindConfigParse}
	ErrSourceNotFound   = &Error{Kind: KindSourceNotFound}
	ErrSourceUnreadable = &Error{Kind: KindSourceUnreadable}
)

// NewConfigReadError creates an error for a config file that cannot be
// opened or read.
func NewConfigReadError(code, path string, cause error) *Error {
	return &Error{
		Kind:    KindConfigRead,
		Code:    code,
		Message: "cannot read config file",
		Path:    path,
		Cause:   cause,
	}
}

// NewConfigParseError creates an error for malformed configuration content
// or an invalid option value.
func NewConfigParseError(code, message string) *Error {
	return &Error{
		Kind:    KindConfigParse,
		Code:    code,
		Message: message,
	}
}

// NewSourceNotFoundError creates an error for a source token that names
// neither a file nor a directory.
func NewSourceNotFoundError(path string, cause error) *Error {
	return &Error{
		Kind:    KindSourceNotFound,
		Code:    ErrCodeSourceNotFound,
		Message: "source not found",
		Path:    path,
		Cause:   cause,
	}
}

// NewSourceUnreadableError creates an error for a source that exists but
// cannot be inspected or listed.
func NewSourceUnreadableError(code, path string, cause error) *Error {
	return &Error{
		Kind:    KindSourceUnreadable,
		Code:    code,
		Message: "source unreadable",
		Path:    path,
		Cause:   cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// IsConfigRead checks if an error is a config read failure.
func IsConfigRead(err error) bool {
	return KindOf(err) == KindConfigRead
}

// IsConfigParse checks if an error is a config parse failure.
func IsConfigParse(err error) bool {
	return KindOf(err) == KindConfigParse
}

// IsSourceNotFound checks if an error is a missing source.
func IsSourceNotFound(err error) bool {
	return KindOf(err) == KindSourceNotFound
}

// IsSourceUnreadable checks if an error is an unreadable source.
func IsSourceUnreadable(err error) bool {
	return KindOf(err) == KindSourceUnreadable
}
