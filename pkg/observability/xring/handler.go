package xring

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Entry 被 Handler 捕获的一条日志记录。
//
// Attrs 已展开：分组属性的 key 以 "group.key" 形式表示，LogValuer 已求值。
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   []slog.Attr
}

// AttrMap 将属性转换为适合 JSON 编码的 map。
// 同名 key 以后出现的为准。
func (e Entry) AttrMap() map[string]any {
	if len(e.Attrs) == 0 {
		return nil
	}
	m := make(map[string]any, len(e.Attrs))
	for _, a := range e.Attrs {
		m[a.Key] = plainValue(a.Value)
	}
	return m
}

// plainValue 把 slog.Value 转成 encoding/json 能正确输出的值。
func plainValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	default:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		default:
			return x
		}
	}
}

// HandlerOptions Handler 的可选配置。
type HandlerOptions struct {
	// Level 最低记录级别，nil 时为 slog.LevelInfo。
	Level slog.Leveler
}

// Handler 把日志记录写入 Ring[Entry] 的 slog.Handler。
//
// 派生 handler（WithAttrs/WithGroup）与父级共享同一个 Ring。
type Handler struct {
	ring   *Ring[Entry]
	level  slog.Leveler
	prefix string      // 当前分组前缀，形如 "a.b."
	attrs  []slog.Attr // 已展开的预置属性
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler 创建写入 ring 的 Handler。
func NewHandler(ring *Ring[Entry], opts *HandlerOptions) (*Handler, error) {
	if ring == nil {
		return nil, ErrNilRing
	}
	h := &Handler{ring: ring, level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h, nil
}

// Ring 返回 handler 写入的 Ring。
func (h *Handler) Ring() *Ring[Entry] {
	return h.ring
}

// Enabled 实现 slog.Handler。
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle 实现 slog.Handler，总是返回 nil。
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+r.NumAttrs())
	copy(attrs, h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendFlat(attrs, h.prefix, a)
		return true
	})
	h.ring.Append(Entry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

// WithAttrs 实现 slog.Handler。
func (h *Handler) WithAttrs(as []slog.Attr) slog.Handler {
	if len(as) == 0 {
		return h
	}
	attrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(as))
	copy(attrs, h.attrs)
	for _, a := range as {
		attrs = appendFlat(attrs, h.prefix, a)
	}
	return &Handler{ring: h.ring, level: h.level, prefix: h.prefix, attrs: attrs}
}

// WithGroup 实现 slog.Handler。
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{ring: h.ring, level: h.level, prefix: h.prefix + name + ".", attrs: h.attrs}
}

// appendFlat 按 slog 约定展开属性：忽略空属性，内联空 key 的分组。
func appendFlat(dst []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return dst
		}
		sub := prefix
		if a.Key != "" {
			sub = prefix + a.Key + "."
		}
		for _, g := range group {
			dst = appendFlat(dst, sub, g)
		}
		return dst
	}
	return append(dst, slog.Attr{Key: prefix + a.Key, Value: a.Value})
}
