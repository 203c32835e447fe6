// Package logger is the process-wide logger for normsqa.
//
// Debug, Info and Section output is only written when verbose mode is on
// (the --verbose flag). Warnings and errors are always written, because
// ingestion contains failures per file and per batch and reports them here
// instead of returning them to the caller.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level is a log severity.
type Level int

// Log levels, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelPrefixes = map[Level]string{
	LevelDebug: "[DEBUG] ",
	LevelInfo:  "[INFO] ",
	LevelWarn:  "[WARN] ",
	LevelError: "[ERROR] ",
}

var (
	mu      sync.RWMutex
	verbose bool
	quiet   bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables debug and info output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetQuiet suppresses warnings. Errors are still written.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetOutput sets the destination writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func enabled(l Level) bool {
	switch l {
	case LevelDebug, LevelInfo:
		return verbose
	case LevelWarn:
		return !quiet
	default:
		return true
	}
}

// Logf writes a message at the given level.
func Logf(l Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled(l) {
		return
	}
	fmt.Fprintf(output, levelPrefixes[l]+format+"\n", args...)
}

// Debug logs pipeline internals (per-page and per-batch detail).
func Debug(format string, args ...any) { Logf(LevelDebug, format, args...) }

// Info logs progress of a build or query.
func Info(format string, args ...any) { Logf(LevelInfo, format, args...) }

// Warn logs a contained failure.
func Warn(format string, args ...any) { Logf(LevelWarn, format, args...) }

// Error logs a failure that aborted an operation.
func Error(format string, args ...any) { Logf(LevelError, format, args...) }

// Section prints a header separating pipeline stages in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
