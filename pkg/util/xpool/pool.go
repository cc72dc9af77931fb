package xpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xconc/pkg/lifecycle/xthread"
	"github.com/omeyang/xconc/pkg/observability/xmetrics"
	"github.com/omeyang/xconc/pkg/util/xevent"
)

const (
	// MaxWorkers worker 数量上限。
	MaxWorkers = 1 << 16
	// MaxQueueSize 队列大小上限。
	MaxQueueSize = 1 << 24
)

// Handler 处理单个任务。ctx 为 worker 线程的 ctx。
type Handler[T any] func(ctx context.Context, task T) error

// Pool 泛型 worker pool。
type Pool[T any] struct {
	handler Handler[T]
	opts    *options
	queue   chan T
	workers int

	mu     sync.RWMutex // 保护 closed 与 queue 的关闭
	closed bool

	running atomic.Int32
	done    xevent.Event
}

var _ io.Closer = (*Pool[int])(nil)

// New 创建并启动 pool。
func New[T any](workers, queueSize int, handler Handler[T], opts ...Option) (*Pool[T], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if workers < 1 || workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, workers)
	}
	if queueSize < 1 || queueSize > MaxQueueSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQueueSize, queueSize)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.factory == nil {
		o.factory = xthread.New(xthread.WithNamePrefix(o.name), xthread.WithTracker(xthread.NewTracker()))
	}

	p := &Pool[T]{
		handler: handler,
		opts:    o,
		queue:   make(chan T, queueSize),
		workers: workers,
	}
	if err := p.start(); err != nil {
		return nil, err
	}
	return p, nil
}

// start 启动所有 worker；中途失败时关闭已启动的 worker 并等待其退出。
func (p *Pool[T]) start() error {
	threads := make([]*xthread.Thread, 0, p.workers)
	for range p.workers {
		t, err := p.opts.factory.NewThread(context.Background(), p.work)
		if err != nil {
			return fmt.Errorf("xpool: create worker: %w", err)
		}
		threads = append(threads, t)
	}

	p.running.Store(int32(len(threads))) //nolint:gosec // 不超过 MaxWorkers
	for i, t := range threads {
		if err := t.Start(); err != nil {
			// 未启动的线程不会自行递减计数
			if p.running.Add(-int32(len(threads)-i)) == 0 { //nolint:gosec // 同上
				p.done.Signal()
			}
			p.stop()
			<-p.done.Done()
			return fmt.Errorf("xpool: start worker %s: %w", t, err)
		}
	}
	return nil
}

func (p *Pool[T]) work(ctx context.Context) error {
	defer func() {
		if p.running.Add(-1) == 0 {
			p.done.Signal()
		}
	}()
	for task := range p.queue {
		p.process(ctx, task)
	}
	return nil
}

func (p *Pool[T]) process(ctx context.Context, task T) {
	ctx, span := xmetrics.Start(ctx, p.opts.observer, xmetrics.SpanOptions{
		Component: "xpool",
		Operation: p.opts.name,
		Kind:      xmetrics.KindConsumer,
	})
	err := p.invoke(ctx, task)
	span.End(xmetrics.Result{Err: err})

	var pe *xthread.PanicError
	switch {
	case err == nil:
	case errors.As(err, &pe):
		attrs := []slog.Attr{
			slog.String("pool", p.opts.name),
			slog.Any("panic", pe.Value),
			slog.String("stack", string(pe.Stack)),
		}
		if p.opts.logTaskValue {
			attrs = append(attrs, slog.Any("task", task))
		} else {
			attrs = append(attrs, slog.String("task_type", fmt.Sprintf("%T", task)))
		}
		p.opts.logger.LogAttrs(ctx, slog.LevelError, "task panicked", attrs...)
	default:
		p.opts.logger.LogAttrs(ctx, slog.LevelWarn, "task failed",
			slog.String("pool", p.opts.name),
			slog.Any("error", err),
		)
	}
}

// invoke 执行 handler，把 panic 转为 *xthread.PanicError。
func (p *Pool[T]) invoke(ctx context.Context, task T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &xthread.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return p.handler(ctx, task)
}

// Submit 非阻塞地提交任务。
func (p *Pool[T]) Submit(task T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolStopped
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// stop 拒绝新任务并关闭队列，返回是否为首次调用。
func (p *Pool[T]) stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.closed = true
	close(p.queue)
	return true
}

// Shutdown 关闭 pool 并等待队列中的任务处理完毕或 ctx 结束。可重复调用。
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if p.stop() {
		p.opts.logger.Debug("pool shutting down",
			slog.String("pool", p.opts.name),
			slog.Int("pending", len(p.queue)),
		)
	}
	select {
	case <-p.done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("xpool: shutdown %s: %w", p.opts.name, context.Cause(ctx))
	}
}

// Close 等价于 Shutdown(context.Background())。
func (p *Pool[T]) Close() error {
	return p.Shutdown(context.Background())
}

// Done 返回所有 worker 退出后关闭的 channel。
func (p *Pool[T]) Done() <-chan struct{} {
	return p.done.Done()
}

// Workers 返回 worker 数量。
func (p *Pool[T]) Workers() int {
	return p.workers
}

// QueueSize 返回队列容量。
func (p *Pool[T]) QueueSize() int {
	return cap(p.queue)
}

// Pending 返回队列中尚未被取走的任务数。
func (p *Pool[T]) Pending() int {
	return len(p.queue)
}
