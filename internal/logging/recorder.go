package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

type recordStore struct {
	mu    sync.Mutex
	lines []string
}

// Recorder is a slog.Handler that keeps records in memory. Tests install it
// with SetLogger(slog.New(rec)) to inspect what the pipeline reported.
type Recorder struct {
	store *recordStore
	attrs []slog.Attr
}

// NewRecorder returns an empty Recorder capturing every level.
func NewRecorder() *Recorder { return &Recorder{store: &recordStore{}} }

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	var b strings.Builder
	b.WriteString(rec.Level.String())
	b.WriteString(" ")
	b.WriteString(rec.Message)
	for _, a := range r.attrs {
		b.WriteString(" ")
		b.WriteString(a.String())
	}
	rec.Attrs(func(a slog.Attr) bool {
		b.WriteString(" ")
		b.WriteString(a.String())
		return true
	})
	r.store.mu.Lock()
	r.store.lines = append(r.store.lines, b.String())
	r.store.mu.Unlock()
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	na := make([]slog.Attr, 0, len(r.attrs)+len(attrs))
	na = append(na, r.attrs...)
	na = append(na, attrs...)
	return &Recorder{store: r.store, attrs: na}
}

// WithGroup is a no-op; the pipeline does not use groups.
func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of the captured lines.
func (r *Recorder) Records() []string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]string, len(r.store.lines))
	copy(out, r.store.lines)
	return out
}

// Contains reports whether any captured line contains s.
func (r *Recorder) Contains(s string) bool {
	for _, line := range r.Records() {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}
