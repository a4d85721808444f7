// Package log provides a structured logging interface for the graincv pipeline.
//
// This package defines a minimal, slog-compatible logging interface that allows
// for flexible implementation switching while providing pipeline-specific
// structured logging. The interface integrates with Go's standard log/slog
// package and keeps the door open for other logging backends.
//
// Key features:
//   - slog-compatible interface
//   - standard attribute keys for pipeline stages, data shapes and metrics
//   - context-aware logging with field chaining
//   - test-friendly with configurable output destinations
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.StageKey, "tune",
//	    log.FamilyKey, "knn",
//	)
//	logger.Info("search started",
//	    log.FoldsKey, 5,
//	    log.RepeatsKey, 5,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// The interface supports method chaining through the With method, allowing
// for creation of contextual loggers with pre-populated fields. Fields are
// alternating key-value pairs, as in slog.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	//
	// Example:
	//   logger.Info("tuning complete",
	//       log.FamilyKey, "softmax",
	//       log.AccuracyKey, 0.95,
	//   )
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	// Pipeline warnings (non-convergence, undefined metrics) arrive here.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error it is handled specially: the slog
	// backend extracts cockroachdb/errors stack traces into a dedicated
	// stacktrace attribute.
	//
	// Example:
	//   logger.Error("tuning failed", err, log.FamilyKey, "softmax")
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	// Use it to avoid building expensive attributes that won't be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for creating and configuring loggers.
// It allows dependency injection and testing with different implementations.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers created by this provider.
	SetLevel(level Level)
}
