// Package logger provides a structured, levelled logger built on log/slog.
//
// Every request gets a logger pre-tagged with its request ID by the request
// logging middleware. Handlers and services fetch it back with WithCtx:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("listing purchased", "listing_id", id)
//	// → time=... level=INFO msg="listing purchased" request_id=9b1c... listing_id=1
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kleptokart/kleptokart/config"
)

var L *slog.Logger

func init() {
	Configure(os.Stdout, config.AppEnv(), config.LogLevel())
}

// Configure rebuilds the base logger. Production environments log JSON,
// everything else logs human-readable text. An empty level picks INFO in
// production and DEBUG elsewhere.
func Configure(w io.Writer, env, level string, extra ...slog.Handler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(env, level)}

	var handler slog.Handler
	switch strings.ToLower(env) {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	if len(extra) > 0 {
		handler = NewMultiHandler(append([]slog.Handler{handler}, extra...)...)
	}

	L = slog.New(handler)
	slog.SetDefault(L)
	return L
}

func parseLevel(env, level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	switch strings.ToLower(env) {
	case "production", "prod":
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the per-request logger stored in ctx, or the base logger
// when none was injected.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }

func Info(msg string, args ...any) { L.Info(msg, args...) }

func Warn(msg string, args ...any) { L.Warn(msg, args...) }

func Error(msg string, args ...any) { L.Error(msg, args...) }
