package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const loggerKey contextKey = "logger"

// WithRequestID добавляет request_id в контекст логирования
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := FromContext(ctx).With("request_id", requestID)
	return context.WithValue(ctx, loggerKey, l)
}

// WithUserID добавляет user_id в контекст логирования
func WithUserID(ctx context.Context, userID string) context.Context {
	l := FromContext(ctx).With("user_id", userID)
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext извлекает логгер из контекста
// Если логгера нет — возвращает глобальный
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return GetLogger()
	}
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return GetLogger()
}

// CtxDebug логирует debug с контекстом запроса
func CtxDebug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// CtxInfo логирует info с контекстом запроса
func CtxInfo(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// CtxWarn логирует warning с контекстом запроса
func CtxWarn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// CtxError логирует error с контекстом запроса
func CtxError(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}

// CtxWithError логирует ошибку с полем error
func CtxWithError(ctx context.Context, err error, msg string, args ...any) {
	all := append([]any{"error", err.Error()}, args...)
	FromContext(ctx).Error(msg, all...)
}
