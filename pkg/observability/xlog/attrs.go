package xlog

import (
	"log/slog"
	"time"
)

// 标准字段名。
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyThread    = "thread"
	KeyThreadID  = "thread_id"
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
)

// Err 创建错误属性；err 为 nil 时返回空属性，slog 会忽略它。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 以 "1m30s" 形式记录耗时。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 组件名。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 操作名。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 计数。
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}
