// Package logging provides the process-wide structured logger of the pediatric dosing API:
// slog to the console and to a weekly-rotating JSON file, plus an HTTP access log middleware.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LoggingService owns the global logger and the file it writes to
type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingWriter
}

var (
	DefaultLoggingService *LoggingService
	serviceMu             sync.Mutex
)

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// InitLogger installs the global logger. An empty logDir logs to the console only.
func InitLogger(logDir string, level slog.Level) {
	InitLoggerWithRetention(logDir, level, 4, defaultMaxFileSize)
}

// InitLoggerWithRetention installs the global logger with explicit file retention settings
func InitLoggerWithRetention(logDir string, level slog.Level, retentionWeeks int, maxFileSize int64) {
	serviceMu.Lock()
	defer serviceMu.Unlock()

	if DefaultLoggingService != nil && DefaultLoggingService.file != nil {
		_ = DefaultLoggingService.file.Close()
	}

	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	service := &LoggingService{Logger: slog.New(console)}

	if logDir != "" {
		writer, err := NewRotatingWriter(logDir, retentionWeeks, maxFileSize)
		if err != nil {
			service.Logger.Error("Failed to open log directory, logging to console only", "dir", logDir, "error", err)
		} else {
			service.file = writer
			file := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
			service.Logger = slog.New(&fanoutHandler{handlers: []slog.Handler{console, file}})
		}
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

// InitWithWriter installs a logger writing text to w. Used by tests and the CLI.
func InitWithWriter(w io.Writer, level slog.Level) {
	serviceMu.Lock()
	defer serviceMu.Unlock()

	DefaultLoggingService = &LoggingService{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Close flushes and closes the log file, if any
func Close() error {
	serviceMu.Lock()
	defer serviceMu.Unlock()

	if DefaultLoggingService == nil || DefaultLoggingService.file == nil {
		return nil
	}
	err := DefaultLoggingService.file.Close()
	DefaultLoggingService.file = nil
	return err
}

// logger returns the global logger, or a console fallback before InitLogger ran
func logger() *slog.Logger {
	if service := DefaultLoggingService; service != nil && service.Logger != nil {
		return service.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Default returns the global logger, for components that take a *slog.Logger
func Default() *slog.Logger {
	return logger()
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}
