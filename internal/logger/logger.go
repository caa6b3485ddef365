// Package logger holds the process-wide slog instance shared by the
// library and CLI layers.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	global *slog.Logger
	debug  bool
	mu     sync.RWMutex
)

// SetGlobal installs the global logger and debug state.
func SetGlobal(logger *slog.Logger, debugEnabled bool) {
	mu.Lock()
	defer mu.Unlock()
	global = logger
	debug = debugEnabled
}

// Get returns the global logger, or a text handler on stderr when none
// has been installed.
func Get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if global != nil {
		return global
	}
	return newDefault(os.Stderr, debug)
}

// IsDebug reports whether debug logging is enabled.
func IsDebug() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debug
}

func newDefault(w io.Writer, debugEnabled bool) *slog.Logger {
	level := slog.LevelInfo
	if debugEnabled {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
