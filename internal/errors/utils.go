package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// Wrap wraps err as a resolution error of the given kind. An *Error already
// in the chain keeps its location and hints.
func Wrap(err error, kind Kind, code, message string) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Kind:    kind,
			Code:    code,
			Message: message,
			Path:    e.Path,
			Line:    e.Line,
			Key:     e.Key,
			Cause:   e,
			Hints:   e.Hints,
		}
	}

	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapStat classifies an os.Stat / os.ReadDir failure on path: a missing path
// becomes a not-found error, anything else an unreadable one.
func WrapStat(err error, path string) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return NewSourceNotFoundError(path, err)
	}

	code := ErrCodeDirectoryListing
	if errors.Is(err, fs.ErrPermission) {
		code = ErrCodePermissionDenied
	}

	return NewSourceUnreadableError(code, path, err)
}

// SuggestKey returns the candidates closest to key, best match first. Only
// candidates within a third of the key's length in edit distance qualify.
func SuggestKey(key string, candidates []string) []string {
	type scored struct {
		name string
		dist int
	}

	limit := len(key)/3 + 1
	var matches []scored
	for _, c := range candidates {
		d := levenshtein.Distance(strings.ToLower(key), strings.ToLower(c), nil)
		if d <= limit {
			matches = append(matches, scored{name: c, dist: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}

	return out
}

// FormatError renders err with its hints, one per line.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) || len(e.Hints) == 0 {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(err.Error())
	for _, hint := range e.Hints {
		fmt.Fprintf(&b, "\n  hint: %s", hint)
	}

	return b.String()
}
