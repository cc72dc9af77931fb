package xlog

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xconc/pkg/lifecycle/xthread"
)

// EnrichHandler 从 ctx 提取线程与追踪信息注入日志。
//
// 注入 thread、thread_id（来自 xthread.FromContext）与
// trace_id、span_id（来自有效的 OTel span）。缺失的字段直接跳过。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 包装 base。
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

// Enabled 委托给 base。
func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle 追加注入字段后交给 base。按 slog 约定，修改前先 Clone。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [4]slog.Attr
	attrs := appendContextAttrs(buf[:0], ctx)
	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.base.Handle(ctx, r)
}

// WithAttrs 实现 slog.Handler。
func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 实现 slog.Handler。
func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}

func appendContextAttrs(dst []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return dst
	}
	if t, ok := xthread.FromContext(ctx); ok {
		dst = append(dst,
			slog.String(KeyThread, t.Name()),
			slog.String(KeyThreadID, t.ID()),
		)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		dst = append(dst,
			slog.String(KeyTraceID, sc.TraceID().String()),
			slog.String(KeySpanID, sc.SpanID().String()),
		)
	}
	return dst
}
