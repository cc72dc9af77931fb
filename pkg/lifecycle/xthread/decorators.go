package xthread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/omeyang/xconc/pkg/observability/xmetrics"
)

// Daemon 将 inner 创建的线程标记为守护线程：不注册到 Tracker，不阻塞关闭。
func Daemon(inner Factory) Factory {
	return decorate(inner, func(t *Thread) error {
		return t.SetDaemon(true)
	})
}

// LogFailures 为 inner 创建的线程安装失败处理器：每次失败记录一条 Error 日志，
// panic 附带堆栈。处理器从不重新 panic，进程不会因此退出。
//
// 工作函数返回 context.Canceled 属于正常停止，不记录。
//
// logger 为 nil 时使用 slog.Default()。会替换内层已安装的处理器。
func LogFailures(inner Factory, logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	handler := func(t *Thread, failure error) {
		var pe *PanicError
		isPanic := errors.As(failure, &pe)
		if !isPanic && errors.Is(failure, context.Canceled) {
			return
		}
		attrs := []slog.Attr{
			slog.String("thread", t.Name()),
			slog.String("thread_id", t.ID()),
			slog.Bool("daemon", t.Daemon()),
			slog.Any("error", failure),
		}
		msg := "thread failed"
		if isPanic {
			msg = "thread panicked"
			attrs = append(attrs, slog.String("stack", string(pe.Stack)))
		}
		// 线程 ctx 可能已取消，日志不应因此丢失
		logger.LogAttrs(context.WithoutCancel(t.Context()), slog.LevelError, msg, attrs...)
	}
	return decorate(inner, func(t *Thread) error {
		return t.SetFailureHandler(handler)
	})
}

// StableContext 将 inner 创建的线程的 context 固定为 ctx。
//
// 线程保留 ctx 携带的值，不再继承 NewThread 调用方 context 的取消。
// ctx 为 nil 时使用 context.Background()。
func StableContext(inner Factory, ctx context.Context) Factory {
	if ctx == nil {
		ctx = context.Background()
	}
	return decorate(inner, func(t *Thread) error {
		return t.SetContext(ctx)
	})
}

// Named 按 "prefix-1"、"prefix-2" 的顺序为 inner 创建的线程命名。
// prefix 为空时使用 "thread"。
func Named(inner Factory, prefix string) Factory {
	if prefix == "" {
		prefix = "thread"
	}
	var seq atomic.Uint64
	return decorate(inner, func(t *Thread) error {
		return t.SetName(prefix + "-" + strconv.FormatUint(seq.Add(1), 10))
	})
}

// Observed 将 inner 创建的线程的每次运行上报为一个 xmetrics 跨度：
// component 为 "xthread"，operation 为线程名，状态由工作函数结果决定。
//
// observer 为 nil 时不做任何包装。
func Observed(inner Factory, observer xmetrics.Observer) Factory {
	return decorate(inner, func(t *Thread) error {
		if observer == nil {
			return nil
		}
		return t.Wrap(func(next Work) Work {
			return func(ctx context.Context) (err error) {
				ctx, span := xmetrics.Start(ctx, observer, xmetrics.SpanOptions{
					Component: "xthread",
					Operation: t.Name(),
					Kind:      xmetrics.KindInternal,
					Attrs: []xmetrics.Attr{
						xmetrics.String("thread_id", t.ID()),
						xmetrics.Bool("daemon", t.Daemon()),
					},
				})
				defer func() {
					if r := recover(); r != nil {
						span.End(xmetrics.Result{Status: xmetrics.StatusError, Err: fmt.Errorf("xthread: panic: %v", r)})
						panic(r)
					}
					span.End(xmetrics.Result{Err: err})
				}()
				return next(ctx)
			}
		})
	})
}
