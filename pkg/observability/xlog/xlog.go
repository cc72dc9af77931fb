package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口。所有方法都要求 ctx，属性只接受 slog.Attr。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 记录 Error 级别日志，并附带当前 goroutine 的堆栈。
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger，共享父级的级别。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger。
	WithGroup(name string) Logger
}

// Leveler 动态级别控制。
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 是 Build 的返回类型。
type LoggerWithLevel interface {
	Logger
	Leveler

	// Slog 返回共享同一 handler 链与级别的 *slog.Logger，
	// 用于只接受 *slog.Logger 的低层包。
	Slog() *slog.Logger
}
