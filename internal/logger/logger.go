package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelSuccess
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarn:    "WARN",
	LevelError:   "ERROR",
	LevelSuccess: "SUCCESS",
}

var levelColors = map[LogLevel]string{
	LevelDebug:   "\033[36m",   // Cyan
	LevelInfo:    "\033[32m",   // Green
	LevelWarn:    "\033[33m",   // Yellow
	LevelError:   "\033[31m",   // Red
	LevelSuccess: "\033[32;1m", // Bright Green
}

// Logger writes leveled, colored lines to the console and plain timestamped
// lines to the run log file when one is attached.
type Logger struct {
	mu     sync.Mutex
	prefix string
}

type shared struct {
	mu       sync.Mutex
	minLevel LogLevel
	console  io.Writer
	file     io.Writer
}

var root = &shared{
	minLevel: LevelInfo,
	console:  os.Stderr,
}

// SetLevel sets the minimum console log level. The run log file always
// receives every line regardless of level.
func SetLevel(level LogLevel) {
	root.mu.Lock()
	defer root.mu.Unlock()
	root.minLevel = level
}

// SetConsole redirects console output, used by tests.
func SetConsole(w io.Writer) {
	root.mu.Lock()
	defer root.mu.Unlock()
	root.console = w
}

// OpenRunLog creates the per-run append-only log file under dir, named by the
// start timestamp, and attaches it to all loggers. Returns the file path.
func OpenRunLog(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("dockhand-%s.log", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open run log: %w", err)
	}
	root.mu.Lock()
	defer root.mu.Unlock()
	root.file = f
	return path, nil
}

// PackageLogger creates a logger with a package prefix on console lines.
func PackageLogger(pkg string) *Logger {
	return &Logger{prefix: pkg}
}

func (l *Logger) log(level LogLevel, msg string, args ...interface{}) {
	formatted := fmt.Sprintf(msg, args...)

	root.mu.Lock()
	file := root.file
	min := root.minLevel
	console := root.console
	root.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if file != nil {
		fmt.Fprintf(file, "%s [%s] %s\n",
			time.Now().Format("2006-01-02 15:04:05"), levelNames[level], formatted)
	}

	if level < min {
		return
	}

	var prefix string
	if l.prefix != "" {
		prefix = fmt.Sprintf("[%s] ", l.prefix)
	}
	fmt.Fprintf(console, "%s%-7s\033[0m %s%s\n",
		levelColors[level], levelNames[level], prefix, formatted)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// Success logs a success message
func (l *Logger) Success(msg string, args ...interface{}) {
	l.log(LevelSuccess, msg, args...)
}

// Timed logs the duration of a stage
func (l *Logger) Timed(label string, fn func() error) error {
	start := time.Now()
	l.Info("Starting %s...", label)
	if err := fn(); err != nil {
		l.Error("%s failed after %v", label, time.Since(start).Round(time.Millisecond))
		return err
	}
	l.Success("Completed %s in %v", label, time.Since(start).Round(time.Millisecond))
	return nil
}
