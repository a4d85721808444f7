package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SetupLogger function setup logger.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
		// Rename standard keys so pipeline logs aggregate cleanly.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps an existing *slog.Logger in the Logger interface.
func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogLogger{logger: logger}
}

// NewWriterLogger builds a Logger emitting JSON records to w at the given
// level, with the error-formatting handler installed. Intended for CLI use.
func NewWriterLogger(w io.Writer, level Level) Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.Level(level)})
	return &slogLogger{logger: slog.New(WrapByErrFmtHandler(handler))}
}

// GetLogger returns a Logger backed by the process-wide slog default.
func GetLogger() Logger {
	return &slogLogger{logger: slog.Default()}
}

func (s *slogLogger) Debug(msg string, fields ...any) {
	s.logger.Debug(msg, normalizeErrField(fields)...)
}

func (s *slogLogger) Info(msg string, fields ...any) {
	s.logger.Info(msg, normalizeErrField(fields)...)
}

func (s *slogLogger) Warn(msg string, fields ...any) {
	s.logger.Warn(msg, normalizeErrField(fields)...)
}

func (s *slogLogger) Error(msg string, fields ...any) {
	s.logger.Error(msg, normalizeErrField(fields)...)
}

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: s.logger.With(normalizeErrField(fields)...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}

// normalizeErrField converts a bare leading error into an ErrAttr pair so the
// ErrFmtHandler can pick up its stack trace.
func normalizeErrField(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		out := make([]any, 0, len(fields)+1)
		out = append(out, ErrAttr(err))
		out = append(out, fields[1:]...)
		return out
	}
	return fields
}
