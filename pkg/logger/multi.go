package logger

import (
	"context"
	"log/slog"
)

// fanoutHandler hands each record to several handlers. The serve command
// uses it to log pretty output to the terminal and JSON to a log file.
type fanoutHandler struct {
	handlers []slog.Handler
}

// Multi combines loggers into one that writes every record to each of them.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	handlers := make([]slog.Handler, 0, len(loggers))
	for _, l := range loggers {
		handlers = append(handlers, l.Handler())
	}
	return slog.New(&fanoutHandler{handlers: handlers})
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanoutHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	children := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		children = append(children, fn(h))
	}
	return &fanoutHandler{handlers: children}
}
