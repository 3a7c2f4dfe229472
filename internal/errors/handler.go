package errors

import (
	"context"
	"errors"
)

// Logger is the subset of the logging interface the handler needs.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler reports resolution failures through a logger.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with fields derived from its kind. Watch rebuild failures
// pass recoverable=true and are logged as warnings.
func (h *ErrorHandler) Handle(ctx context.Context, err error, recoverable bool) {
	if err == nil || h.logger == nil {
		return
	}

	var e *Error
	if !errors.As(err, &e) {
		h.log(ctx, err, recoverable, "Unhandled error occurred")
		return
	}

	fields := []interface{}{"kind", string(e.Kind), "code", e.Code}
	if e.Path != "" {
		fields = append(fields, "path", e.Path)
	}
	if e.Line > 0 {
		fields = append(fields, "line", e.Line)
	}
	if e.Key != "" {
		fields = append(fields, "key", e.Key)
	}
	if len(e.Hints) > 0 {
		fields = append(fields, "hints", e.Hints)
	}

	var msg string
	switch e.Kind {
	case KindConfigRead:
		msg = "Failed to read configuration"
	case KindConfigParse:
		msg = "Invalid configuration"
	case KindSourceNotFound:
		msg = "Source not found"
	case KindSourceUnreadable:
		msg = "Source could not be read"
	default:
		msg = "Error occurred"
	}

	h.log(ctx, err, recoverable, msg, fields...)
}

func (h *ErrorHandler) log(ctx context.Context, err error, recoverable bool, msg string, fields ...interface{}) {
	if recoverable {
		h.logger.Warn(ctx, err, msg, fields...)
		return
	}
	h.logger.Error(ctx, err, msg, fields...)
}
