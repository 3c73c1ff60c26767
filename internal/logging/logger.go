// Package logging configures log/slog and derives request scoped loggers
// carrying chi's request id.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs a logger writing to stdout as the slog default.
// Level is debug, info, warn or error; format is text or json.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger, tagged with request_id when ctx
// went through chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithFields returns FromContext(ctx) with extra attributes, for example
//
//	log := logging.WithFields(ctx, "import_id", id, "strategy", name)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
