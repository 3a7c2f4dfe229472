package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "code and message",
			err:      NewConfigParseError(ErrCodeInvalidValue, "bad value"),
			expected: "[ERR_INVALID_VALUE] bad value",
		},
		{
			name:     "path and line",
			err:      NewConfigParseError(ErrCodeConfigSyntax, "missing key").WithLine(3),
			expected: "[ERR_CONFIG_SYNTAX] missing key",
		},
		{
			name: "path line key and cause",
			err: &Error{
				Kind:    KindConfigParse,
				Code:    ErrCodeUnknownKey,
				Message: "unknown key",
				Path:    "talk.cfg",
				Line:    7,
				Key:     "themes",
				Cause:   errors.New("boom"),
			},
			expected: "[ERR_UNKNOWN_KEY] talk.cfg:7 key:themes unknown key: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("resolving: %w", NewSourceNotFoundError("missing.md", fs.ErrNotExist))

	assert.True(t, errors.Is(err, ErrSourceNotFound))
	assert.True(t, errors.Is(err, &Error{Kind: KindSourceNotFound, Code: ErrCodeSourceNotFound}))
	assert.False(t, errors.Is(err, &Error{Kind: KindSourceNotFound, Code: ErrCodeNotDocument}))
	assert.False(t, errors.Is(err, ErrConfigRead))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestKindPredicates(t *testing.T) {
	read := NewConfigReadError(ErrCodeConfigMissing, "x.cfg", fs.ErrNotExist)
	parse := NewConfigParseError(ErrCodeInvalidValue, "bad")
	notFound := NewSourceNotFoundError("a.md", nil)
	unreadable := NewSourceUnreadableError(ErrCodePermissionDenied, "dir", fs.ErrPermission)

	assert.True(t, IsConfigRead(read))
	assert.True(t, IsConfigParse(parse))
	assert.True(t, IsSourceNotFound(notFound))
	assert.True(t, IsSourceUnreadable(unreadable))

	assert.False(t, IsConfigRead(parse))
	assert.False(t, IsSourceNotFound(unreadable))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindConfigRead, "", ""))

	plain := Wrap(errors.New("disk"), KindConfigRead, ErrCodeConfigUnreadable, "read failed")
	require.NotNil(t, plain)
	assert.Equal(t, KindConfigRead, plain.Kind)
	assert.EqualError(t, plain.Cause, "disk")

	inner := NewConfigParseError(ErrCodeUnknownKey, "unknown key").WithKey("themes").WithLine(4)
	inner.Path = "talk.cfg"
	outer := Wrap(inner, KindConfigParse, ErrCodeConfigSyntax, "loading config")
	assert.Equal(t, "talk.cfg", outer.Path)
	assert.Equal(t, 4, outer.Line)
	assert.Equal(t, "themes", outer.Key)
	assert.True(t, errors.Is(outer, &Error{Kind: KindConfigParse, Code: ErrCodeUnknownKey}))
}

func TestWrapStat(t *testing.T) {
	assert.Nil(t, WrapStat(nil, "x"))

	notFound := WrapStat(fmt.Errorf("stat: %w", fs.ErrNotExist), "a.md")
	assert.Equal(t, KindSourceNotFound, notFound.Kind)
	assert.Equal(t, "a.md", notFound.Path)

	denied := WrapStat(fs.ErrPermission, "dir")
	assert.Equal(t, KindSourceUnreadable, denied.Kind)
	assert.Equal(t, ErrCodePermissionDenied, denied.Code)

	other := WrapStat(errors.New("io"), "dir")
	assert.Equal(t, KindSourceUnreadable, other.Kind)
	assert.Equal(t, ErrCodeDirectoryListing, other.Code)
}

func TestSuggestKey(t *testing.T) {
	keys := []string{"theme", "linenos", "destination", "encoding", "extensions"}

	assert.Equal(t, []string{"theme"}, SuggestKey("themes", keys))
	assert.Equal(t, []string{"linenos"}, SuggestKey("lineno", keys))
	assert.Empty(t, SuggestKey("zzzzzz", keys))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "", FormatError(nil))
	assert.Equal(t, "plain", FormatError(errors.New("plain")))

	err := NewConfigParseError(ErrCodeUnknownKey, "unknown key").WithHint("did you mean theme?")
	assert.Equal(t, "[ERR_UNKNOWN_KEY] unknown key\n  hint: did you mean theme?", FormatError(err))
}

type recordingLogger struct {
	level  string
	msg    string
	fields []interface{}
}

func (r *recordingLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	r.level, r.msg, r.fields = "error", msg, fields
}

func (r *recordingLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	r.level, r.msg, r.fields = "warn", msg, fields
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)

	handler.Handle(context.Background(), nil, false)
	assert.Empty(t, logger.msg)

	handler.Handle(context.Background(), NewSourceNotFoundError("a.md", nil), false)
	assert.Equal(t, "error", logger.level)
	assert.Equal(t, "Source not found", logger.msg)
	assert.Contains(t, logger.fields, "a.md")

	handler.Handle(context.Background(), NewConfigParseError(ErrCodeInvalidValue, "bad"), true)
	assert.Equal(t, "warn", logger.level)
	assert.Equal(t, "Invalid configuration", logger.msg)

	handler.Handle(context.Background(), errors.New("plain"), false)
	assert.Equal(t, "Unhandled error occurred", logger.msg)
}
