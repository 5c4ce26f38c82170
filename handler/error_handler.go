package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tenantbot/pkg/binder"
	"github.com/dmitrymomot/tenantbot/pkg/logger"
)

// classify maps err to a status code and an error key.
func classify(err error) (int, string) {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, httpErr.Key
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, binder.ErrFailedToParseJSON), errors.Is(err, binder.ErrFailedToParsePath):
		return ErrBadRequest.Code, ErrBadRequest.Key
	}
	return ErrInternalServerError.Code, ErrInternalServerError.Key
}

// NewErrorHandler logs the failure and answers with a JSON error body.
// Client errors are logged at warn level, server errors at error level.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	log = logger.OrDiscard(log)
	return func(ctx Context, err error) {
		status, _ := classify(err)
		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		r := ctx.Request()
		log.LogAttrs(ctx, level, "request error",
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)
		if renderErr := JSONError(err).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(ctx, slog.LevelError, "failed to render error", logger.Error(renderErr))
		}
	}
}
