package xpool

import (
	"log/slog"

	"github.com/omeyang/xconc/pkg/lifecycle/xthread"
	"github.com/omeyang/xconc/pkg/observability/xmetrics"
)

// Option 配置 Pool。
type Option func(*options)

type options struct {
	logger       *slog.Logger
	name         string
	logTaskValue bool
	factory      xthread.Factory
	observer     xmetrics.Observer
}

func defaultOptions() *options {
	return &options{
		logger: slog.Default(),
		name:   "xpool",
	}
}

// WithLogger 设置日志记录器，默认 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 pool 名称，用于日志、跨度与默认线程名前缀。默认 "xpool"。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogTaskValue 在 panic 日志中记录完整的任务值（默认仅记录类型）。
func WithLogTaskValue() Option {
	return func(o *options) {
		o.logTaskValue = true
	}
}

// WithThreadFactory 设置创建 worker 线程的工厂。
//
// 默认工厂以 pool 名称为线程名前缀，并使用 pool 私有的 Tracker。
// worker 自身会恢复任务 panic，工厂上的失败处理器只会看到 worker 循环之外的失败。
func WithThreadFactory(f xthread.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithObserver 为每个任务上报观测跨度。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}
