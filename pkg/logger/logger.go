// Package logger wraps log/slog with a colorized console handler
// (lmittmann/tint) for interactive use, and plain JSON for shipping logs
// off-box. It keeps the field-constructor ergonomics the rest of this
// codebase is written against (String, Int, Uint32, Error, ...) so call
// sites read the same regardless of which handler is active underneath.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger wraps *slog.Logger.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // "console" (tint, colorized) or "json"
	Output io.Writer
}

// Field is a structured logging key/value pair.
type Field = slog.Attr

// New creates a new Logger per cfg.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	level := parseLevel(cfg.Level)

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(output, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithComponent returns a child logger tagging every record with a
// "component" field.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// Debug logs at debug level with structured fields.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.Logger.LogAttrs(nil, slog.LevelDebug, msg, fields...)
}

// Info logs at info level with structured fields.
func (l *Logger) Info(msg string, fields ...Field) {
	l.Logger.LogAttrs(nil, slog.LevelInfo, msg, fields...)
}

// Warn logs at warn level with structured fields.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.Logger.LogAttrs(nil, slog.LevelWarn, msg, fields...)
}

// Error logs at error level with structured fields.
func (l *Logger) Error(msg string, fields ...Field) {
	l.Logger.LogAttrs(nil, slog.LevelError, msg, fields...)
}

func parseLevel(level string) slog.Level {
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

// Field constructors, kept name-compatible with call sites written
// against the previous hand-rolled logger.

func String(key, val string) Field     { return slog.String(key, val) }
func Int(key string, val int) Field    { return slog.Int(key, val) }
func Int64(key string, val int64) Field { return slog.Int64(key, val) }
func Uint64(key string, val uint64) Field {
	return slog.Uint64(key, val)
}
func Uint(key string, val uint) Field   { return slog.Uint64(key, uint64(val)) }
func Uint32(key string, val uint32) Field {
	return slog.Uint64(key, uint64(val))
}
func Bool(key string, val bool) Field       { return slog.Bool(key, val) }
func Float64(key string, val float64) Field { return slog.Float64(key, val) }
func Duration(key string, val time.Duration) Field {
	return slog.Duration(key, val)
}
func Any(key string, val interface{}) Field { return slog.Any(key, val) }

// Error creates an "error" field.
func Error(err error) Field {
	if err == nil {
		return slog.String("error", "nil")
	}
	return slog.String("error", err.Error())
}
