// Package logging wraps log/slog with the small correlation-free logger
// interface used throughout the engine, following the teacher's
// telemetry/logging wrapper style with the OTel trace correlation
// dropped (this engine has no distributed trace context to correlate
// log lines against — see DESIGN.md).
package logging

import (
	"context"
	"log/slog"
)

// Logger is the minimal wrapper used across the engine.
type Logger interface {
	InfoCtx(ctx context.Context, msg string, attrs ...any)
	WarnCtx(ctx context.Context, msg string, attrs ...any)
	ErrorCtx(ctx context.Context, msg string, attrs ...any)
}

type slogLogger struct{ base *slog.Logger }

// New returns a Logger backed by base, or slog.Default() if base is nil.
func New(base *slog.Logger) Logger {
	if base == nil {
		base = slog.Default()
	}
	return &slogLogger{base: base}
}

func (l *slogLogger) InfoCtx(ctx context.Context, msg string, attrs ...any) {
	l.base.InfoContext(ctx, msg, attrs...)
}

func (l *slogLogger) WarnCtx(ctx context.Context, msg string, attrs ...any) {
	l.base.WarnContext(ctx, msg, attrs...)
}

func (l *slogLogger) ErrorCtx(ctx context.Context, msg string, attrs ...any) {
	l.base.ErrorContext(ctx, msg, attrs...)
}
