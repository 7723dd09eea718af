// Package log is the process-wide leveled logger. Calls take a message
// followed by key/value pairs; Error takes the error as its own argument.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	mu     sync.Mutex
	logger = newLogger(os.Stderr, charmlog.InfoLevel)
)

func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		Formatter:       charmlog.TextFormatter,
		ReportTimestamp: true,
		Prefix:          "todoboard",
	})
}

// SetOutput redirects all subsequent log lines to w, keeping the level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, logger.GetLevel())
}

// SetLevel accepts debug, info, warn or error. Unknown names keep info.
func SetLevel(name string) {
	level, err := charmlog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		level = charmlog.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	logger.SetLevel(level)
}

// Logger returns the underlying logger.
func Logger() *charmlog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

func Debug(msg string, kv ...any) {
	Logger().Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	Logger().Info(msg, kv...)
}

func Warn(msg string, kv ...any) {
	Logger().Warn(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	Logger().Error(msg, extended...)
}
