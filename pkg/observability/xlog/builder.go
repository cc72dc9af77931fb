package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xconc/pkg/observability/xring"
	"github.com/omeyang/xconc/pkg/observability/xrotate"
)

// ReplaceAttrFunc 在输出前改写属性（重命名、脱敏、过滤）；返回空 Key 表示移除。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器。
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	enrich      bool
	replaceAttr ReplaceAttrFunc
	rotator     xrotate.Rotator
	ring        *xring.Ring[xring.Entry]
	attrs       []slog.Attr
	onError     func(error)
	used        bool
	err         error
}

// New 创建 Builder：stderr、Info 级别、text 格式、启用 enrich。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
		enrich:   true,
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetOutput 设置输出目标；nil 忽略。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil || w == nil {
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置初始级别。
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err != nil {
		return b
	}
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 以字符串设置初始级别，见 [ParseLevel]。
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		return b.fail(err)
	}
	return b.SetLevel(level)
}

// SetFormat 设置 text 或 json；空值视为 text。
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = f
	default:
		return b.fail(fmt.Errorf("%w: %q", ErrUnknownFormat, format))
	}
	return b
}

// SetAddSource 是否记录源码位置。
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetEnrich 是否从 ctx 注入线程与追踪字段，默认启用。
func (b *Builder) SetEnrich(enable bool) *Builder {
	b.enrich = enable
	return b
}

// SetRotation 输出到按大小轮转的文件，覆盖 SetOutput。
// 文件在 Build 返回的 cleanup 中关闭。
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	if b.err != nil {
		return b
	}
	r, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		return b.fail(err)
	}
	if b.rotator != nil {
		_ = b.rotator.Close() //nolint:errcheck // 被新的轮转器替换
	}
	b.rotator = r
	b.output = r
	return b
}

// SetRing 将每条记录同时写入 ring，级别与主输出一致。
func (b *Builder) SetRing(ring *xring.Ring[xring.Entry]) *Builder {
	if b.err != nil {
		return b
	}
	if ring == nil {
		return b.fail(ErrNilRing)
	}
	b.ring = ring
	return b
}

// SetAttrs 为每条日志附加固定属性（如 service、version）。
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// SetOnError 设置 handler 写入失败时的回调。回调同步执行，应保持轻量；
// 回调内再次触发的日志错误不会递归调用它。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetReplaceAttr 设置属性改写函数，只作用于主输出。
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// Build 构建 Logger。
//
// 返回的 cleanup 关闭轮转文件，可重复调用。配置错误时已创建的轮转文件会被关闭。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.used {
		return nil, nil, ErrBuilderUsed
	}
	b.used = true
	if b.err != nil {
		if b.rotator != nil {
			_ = b.rotator.Close() //nolint:errcheck // 已有配置错误
		}
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:       b.levelVar,
		AddSource:   b.addSource,
		ReplaceAttr: b.replaceAttr,
	}
	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}

	if b.ring != nil {
		rh, err := xring.NewHandler(b.ring, &xring.HandlerOptions{Level: b.levelVar})
		if err != nil {
			return nil, nil, err
		}
		handler = newTeeHandler(handler, rh)
	}
	if b.enrich {
		eh, err := NewEnrichHandler(handler)
		if err != nil {
			return nil, nil, err
		}
		handler = eh
	}
	if len(b.attrs) > 0 {
		handler = handler.WithAttrs(b.attrs)
	}

	logger := &xlogger{
		handler:        handler,
		levelVar:       b.levelVar,
		onError:        b.onError,
		errorCount:     new(atomic.Uint64),
		addSource:      b.addSource,
		inErrorHandler: new(atomic.Bool),
	}
	return logger, b.cleanup(), nil
}

func (b *Builder) cleanup() func() error {
	rotator := b.rotator
	var (
		once sync.Once
		err  error
	)
	return func() error {
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
