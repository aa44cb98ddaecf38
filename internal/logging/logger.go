// Package logging holds the package-level *slog.Logger used by the
// analysis packages to report dropped columns, exclusions and progress.
package logging

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetLogger configures the package-level logger. Pass nil to discard output.
//
// Example enabling output to stderr:
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		logger.Store(newDiscardLogger())
		return
	}
	logger.Store(sl)
}

// Logger returns the package-level logger, or a discard logger if none was set.
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = newDiscardLogger()
		logger.Store(l)
	}
	return l
}

// New builds a text logger writing to w at the given level.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
