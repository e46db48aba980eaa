package logger

import (
	"context"
	"log/slog"
	"runtime"
)

// sourceHandler attaches the caller location to records at or above
// minLevel. Limiter warnings point at the failing store call while routine
// request logs stay short.
type sourceHandler struct {
	next     slog.Handler
	minLevel slog.Leveler
}

// NewSourceHandler wraps next, which must be created with AddSource: false.
func NewSourceHandler(next slog.Handler, minLevel slog.Leveler) slog.Handler {
	return &sourceHandler{next: next, minLevel: minLevel}
}

func (h *sourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sourceHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.PC != 0 && r.Level >= h.minLevel.Level() {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		r.AddAttrs(slog.Any(slog.SourceKey, &slog.Source{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		}))
	}
	return h.next.Handle(ctx, r)
}

func (h *sourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewSourceHandler(h.next.WithAttrs(attrs), h.minLevel)
}

func (h *sourceHandler) WithGroup(name string) slog.Handler {
	return NewSourceHandler(h.next.WithGroup(name), h.minLevel)
}
