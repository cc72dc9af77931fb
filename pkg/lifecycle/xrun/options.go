package xrun

import (
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/omeyang/xconc/pkg/lifecycle/xthread"
)

// Option 配置 Group。
type Option func(*options)

type options struct {
	logger          *slog.Logger
	name            string
	factory         xthread.Factory
	tracker         *xthread.Tracker
	trackerTimeout  time.Duration
	signals         []os.Signal
	noSignalHandler bool

	// 测试替换点
	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
}

func defaultOptions() *options {
	return &options{
		logger: slog.Default(),
		name:   "xrun",
		notify: signal.Notify,
		stop:   signal.Stop,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.factory == nil {
		// 服务线程使用私有 Tracker，不干扰调用方对 DefaultTracker 的等待
		o.factory = xthread.New(xthread.WithNamePrefix(o.name), xthread.WithTracker(xthread.NewTracker()))
	}
	return o
}

// WithLogger 设置生命周期日志记录器，默认 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 Group 名称，用于日志与默认线程名前缀。默认 "xrun"。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithThreadFactory 设置运行服务的线程工厂。
//
// 工厂带有失败处理器（如 xthread.LogFailures）时，服务 panic 会转为
// *xthread.PanicError 并作为服务错误返回；否则 panic 按 Go 默认行为使进程崩溃。
func WithThreadFactory(f xthread.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithThreadTracker 使 Wait 在所有服务返回后继续等待 tracker 上的非守护线程，
// 最长 timeout（非正值表示不限时）。超时时 Wait 的错误包装 xthread.ErrWaitInterrupted。
func WithThreadTracker(tracker *xthread.Tracker, timeout time.Duration) Option {
	return func(o *options) {
		o.tracker = tracker
		o.trackerTimeout = timeout
	}
}

// WithSignals 设置 Run/RunServices 监听的信号；空列表使用 [DefaultSignals]。
func WithSignals(signals ...os.Signal) Option {
	signals = slices.Clone(signals)
	return func(o *options) {
		o.signals = signals
	}
}

// WithoutSignalHandler 禁用 Run/RunServices 的信号监听。
func WithoutSignalHandler() Option {
	return func(o *options) {
		o.noSignalHandler = true
	}
}
