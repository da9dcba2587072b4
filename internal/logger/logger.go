// ABOUTME: Leveled logging for chatsync with file output for the TUI
// ABOUTME: Debug/Info/Warn/Error helpers over a shared log.Logger

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level orders log severities; messages below the current level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

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
		return "OFF"
	}
}

// ParseLevel maps a config string to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none":
		return LevelOff
	default:
		return LevelInfo
	}
}

var (
	mu     sync.Mutex
	level  = LevelInfo
	std    = log.New(os.Stderr, "", log.LstdFlags)
	closer io.Closer
)

// SetVerbose enables or disables DEBUG output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	if v {
		level = LevelDebug
	} else if level == LevelDebug {
		level = LevelInfo
	}
}

// IsVerbose reports whether DEBUG output is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return level == LevelDebug
}

// SetLevel sets the minimum level from a config string such as "debug" or "warn".
func SetLevel(s string) {
	mu.Lock()
	defer mu.Unlock()
	level = ParseLevel(s)
}

// SetOutput sets the destination for log lines. nil restores stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	std.SetOutput(w)
}

// OpenFile redirects output to path, creating parent directories. The TUI
// needs this so log lines never land on the alternate screen.
func OpenFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) //nolint:gosec // path comes from user config
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
	closer = f
	std.SetOutput(f)
	return nil
}

// Close releases a file opened by OpenFile and restores stderr.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	std.SetOutput(os.Stderr)
}

func logf(l Level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	std.Printf("[%s] %s", l, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (only shown when verbose).
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

// Info logs at INFO level.
func Info(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

// Warn logs at WARN level.
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, format, args...)
}

// Error logs at ERROR level.
func Error(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}
