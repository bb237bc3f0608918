// ABOUTME: Level-gated logging for the hook engine, keyed on slog levels
// ABOUTME: Writes "[LEVEL] component: msg" lines to stderr; writer swappable for tests

package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Level constants matching slog levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	level atomic.Int64

	outMu sync.Mutex
	out   io.Writer = os.Stderr
)

func init() {
	level.Store(int64(LevelInfo))
}

// SetLevel sets the global log level.
func SetLevel(l slog.Level) {
	level.Store(int64(l))
}

// GetLevel returns the current log level.
func GetLevel() slog.Level {
	return slog.Level(level.Load())
}

// SetOutput redirects log output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

// ParseLevel maps a config string ("debug", "warn", ...) to a level.
// Unknown values yield LevelInfo.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return LevelInfo
	}
	return l
}

func emit(l slog.Level, tag, format string, args []any) {
	if l < slog.Level(level.Load()) {
		return
	}
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, "["+tag+"] "+format+"\n", args...)
}

// Debug logs a debug message if the level allows it.
func Debug(format string, args ...any) { emit(LevelDebug, "DEBUG", format, args) }

// Info logs an info message if the level allows it.
func Info(format string, args ...any) { emit(LevelInfo, "INFO", format, args) }

// Warn logs a warning message if the level allows it.
func Warn(format string, args ...any) { emit(LevelWarn, "WARN", format, args) }

// Error logs an error message (always emitted).
func Error(format string, args ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, "[ERROR] "+format+"\n", args...)
}
