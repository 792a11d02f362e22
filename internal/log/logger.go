// internal/log/logger.go
// Package log is a small leveled logger shared by the pipeline and the CLI.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// Level defines the severity of a log message.
type Level uint32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag printed in front of every message.
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

// ParseLevel converts a case-insensitive level name to a Level.
// Returns LevelInfo and false if the name is not recognized.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

var (
	currentLevel atomic.Uint32
	logger       atomic.Pointer[stdlog.Logger]
)

func init() {
	SetOutput(os.Stderr)
	SetLevel(LevelInfo)
}

// SetOutput redirects all log output. Used by the CLI and by tests that
// inspect messages.
func SetOutput(w io.Writer) {
	logger.Store(stdlog.New(w, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds))
}

// SetLevel sets the global logging level.
func SetLevel(level Level) {
	currentLevel.Store(uint32(level))
}

// GetLevel returns the global logging level.
func GetLevel() Level {
	return Level(currentLevel.Load())
}

// Enabled reports whether messages at level are currently emitted. Hot paths
// check this before building expensive debug output.
func Enabled(level Level) bool {
	return level >= GetLevel()
}

func output(level Level, msg string) {
	if !Enabled(level) {
		return
	}
	logger.Load().Printf("[%s] %s", level, msg)
}

// Debugf logs a formatted debug message.
func Debugf(format string, v ...any) {
	if Enabled(LevelDebug) {
		output(LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info message.
func Infof(format string, v ...any) {
	if Enabled(LevelInfo) {
		output(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...any) {
	if Enabled(LevelWarn) {
		output(LevelWarn, fmt.Sprintf(format, v...))
	}
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...any) {
	if Enabled(LevelError) {
		output(LevelError, fmt.Sprintf(format, v...))
	}
}

// Fatalf logs regardless of level and exits with status 1.
func Fatalf(format string, v ...any) {
	logger.Load().Fatalf("[FATAL] %s", fmt.Sprintf(format, v...))
}
