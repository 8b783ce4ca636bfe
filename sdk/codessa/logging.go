package codessa

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	// LevelDebug logs verbose debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo logs normal operational messages.
	LevelInfo
	// LevelWarn logs warning messages, including skipped envelopes.
	LevelWarn
	// LevelError logs error messages only.
	LevelError
	// LevelOff disables all logging.
	LevelOff
)

// Logger wraps slog for SDK logging. The zero value and nil are both safe
// and log nothing, so consumers in a TUI don't corrupt the screen unless
// logging is asked for.
type Logger struct {
	slog  *slog.Logger
	level LogLevel
}

// NewLogger creates a new logger with the specified level and output.
func NewLogger(level LogLevel, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}

	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format("15:04:05.000"))
			}
			return a
		},
	}

	return &Logger{
		slog:  slog.New(slog.NewTextHandler(w, opts)),
		level: level,
	}
}

// NewLoggerFromEnv creates a logger based on the LOG_LEVEL environment
// variable. Defaults to LevelOff when unset.
func NewLoggerFromEnv() *Logger {
	var level LogLevel
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		level = LevelDebug
	case "INFO":
		level = LevelInfo
	case "WARN", "WARNING":
		level = LevelWarn
	case "ERROR":
		level = LevelError
	default:
		return &Logger{level: LevelOff}
	}
	return NewLogger(level, os.Stderr)
}

// IsEnabled returns true if logging is enabled at any level.
func (l *Logger) IsEnabled() bool {
	return l != nil && l.level != LevelOff && l.slog != nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	if l.IsEnabled() && l.level <= LevelDebug {
		l.slog.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	if l.IsEnabled() && l.level <= LevelInfo {
		l.slog.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	if l.IsEnabled() && l.level <= LevelWarn {
		l.slog.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	if l.IsEnabled() && l.level <= LevelError {
		l.slog.Error(msg, args...)
	}
}

// With returns a new logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	if !l.IsEnabled() {
		return l
	}
	return &Logger{
		slog:  l.slog.With(args...),
		level: l.level,
	}
}

// RequestLogger times one HTTP request.
type RequestLogger struct {
	logger    *Logger
	method    string
	path      string
	startTime time.Time
}

// StartRequest begins timing an HTTP request.
func (l *Logger) StartRequest(method, path string) *RequestLogger {
	if !l.IsEnabled() {
		return &RequestLogger{logger: l}
	}
	l.Debug("request started", "method", method, "path", path)
	return &RequestLogger{
		logger:    l,
		method:    method,
		path:      path,
		startTime: time.Now(),
	}
}

// Success logs a successful request completion.
func (r *RequestLogger) Success(statusCode int) {
	if !r.logger.IsEnabled() {
		return
	}
	r.logger.Info("request completed",
		"method", r.method,
		"path", r.path,
		"status", statusCode,
		"duration_ms", time.Since(r.startTime).Milliseconds(),
	)
}

// Error logs a request failure.
func (r *RequestLogger) Error(err error) {
	if !r.logger.IsEnabled() {
		return
	}
	r.logger.Error("request failed",
		"method", r.method,
		"path", r.path,
		"error", err.Error(),
		"duration_ms", time.Since(r.startTime).Milliseconds(),
	)
}
