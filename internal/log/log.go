package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/paularlott/logger"
	logslog "github.com/paularlott/logger/slog"
	"golang.org/x/term"
)

var (
	mu     sync.RWMutex
	active logger.Logger = newLogger("info", DefaultFormat(), os.Stderr)
)

// Configure replaces the process logger. Unknown formats fall back to console.
func Configure(level, format string) {
	ConfigureWriter(level, format, os.Stderr)
}

// ConfigureWriter is Configure with an explicit destination, used by tests.
func ConfigureWriter(level, format string, w io.Writer) {
	l := newLogger(level, format, w)
	mu.Lock()
	active = l
	mu.Unlock()
}

// DefaultFormat picks console output for interactive terminals and json otherwise.
func DefaultFormat() string {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return "console"
	}
	return "json"
}

func newLogger(level, format string, w io.Writer) logger.Logger {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "json" {
		format = "console"
	}
	return logslog.New(logslog.Config{
		Level:  level,
		Format: format,
		Writer: w,
	})
}

// Logger returns the current process logger.
func Logger() logger.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// With returns a child logger carrying key=value on every line.
func With(key string, value any) logger.Logger {
	return Logger().With(key, value)
}

func Trace(msg string, keysAndValues ...any) { Logger().Trace(msg, keysAndValues...) }
func Debug(msg string, keysAndValues ...any) { Logger().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)  { Logger().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)  { Logger().Warn(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...any) { Logger().Error(msg, keysAndValues...) }
