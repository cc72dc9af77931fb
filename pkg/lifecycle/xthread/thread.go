package xthread

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Work 是线程执行的工作函数。
type Work func(ctx context.Context) error

// FailureHandler 处理逃逸出工作函数的失败：[*PanicError] 或工作函数返回的错误。
//
// 在线程自身的 goroutine 中、Done 关闭之前调用。
type FailureHandler func(t *Thread, failure error)

// Thread 是 goroutine 的句柄。
//
// 创建后处于未启动状态，属性可通过 Set* 调整；Start 之后属性冻结，
// 所有 Set* 返回 [ErrThreadStarted]。
type Thread struct {
	id   string
	done chan struct{}

	mu      sync.Mutex
	name    string
	daemon  bool
	ctx     context.Context
	work    Work
	handler FailureHandler
	tracker *Tracker
	started bool
	err     error
}

func newThread(ctx context.Context, work Work, tracker *Tracker) *Thread {
	if ctx == nil {
		ctx = context.Background()
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Thread{
		id:      id.String(),
		done:    make(chan struct{}),
		ctx:     ctx,
		work:    work,
		tracker: tracker,
	}
}

// ID 返回线程的唯一标识（UUIDv7）。
func (t *Thread) ID() string {
	return t.id
}

// Name 返回线程名称。
func (t *Thread) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Daemon 报告线程是否为守护线程。
func (t *Thread) Daemon() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.daemon
}

// Context 返回线程运行时使用的 context（不含 FromContext 注入的值）。
func (t *Thread) Context() context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctx
}

// Started 报告线程是否已启动。
func (t *Thread) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// update 在线程未启动时执行 fn。
func (t *Thread) update(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrThreadStarted
	}
	fn()
	return nil
}

// SetName 设置线程名称。
func (t *Thread) SetName(name string) error {
	return t.update(func() { t.name = name })
}

// SetDaemon 设置守护属性。守护线程不注册到 Tracker。
func (t *Thread) SetDaemon(daemon bool) error {
	return t.update(func() { t.daemon = daemon })
}

// SetContext 设置线程运行时使用的 context；nil 视为 context.Background()。
func (t *Thread) SetContext(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return t.update(func() { t.ctx = ctx })
}

// SetFailureHandler 安装失败处理器，nil 表示移除。
func (t *Thread) SetFailureHandler(h FailureHandler) error {
	return t.update(func() { t.handler = h })
}

// FailureHandler 返回当前安装的失败处理器。
func (t *Thread) FailureHandler() FailureHandler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handler
}

// Wrap 用中间件包装工作函数。后调用的 Wrap 位于外层。
func (t *Thread) Wrap(mw func(Work) Work) error {
	if mw == nil {
		return nil
	}
	return t.update(func() {
		if w := mw(t.work); w != nil {
			t.work = w
		}
	})
}

// Start 启动线程。重复调用返回 [ErrThreadStarted]。
func (t *Thread) Start() error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrThreadStarted
	}
	ctx, work, handler := t.ctx, t.work, t.handler
	tracker := t.tracker
	if t.daemon {
		tracker = nil
	}
	// 先登记再标记已启动：任何观察到已启动的调用方，Tracker.Wait 都会等待本线程
	if tracker != nil {
		tracker.add()
	}
	t.started = true
	t.mu.Unlock()

	go t.run(withThread(ctx, t), work, handler, tracker)
	return nil
}

func (t *Thread) run(ctx context.Context, work Work, handler FailureHandler, tracker *Tracker) {
	// 先释放 Tracker 再关闭 done，Join 返回时 Active 已不再计入本线程
	defer func() {
		if tracker != nil {
			tracker.release()
		}
		close(t.done)
	}()

	// 无处理器时不恢复 panic，保持 Go 的默认崩溃行为与原始堆栈
	if handler == nil {
		t.setErr(work(ctx))
		return
	}

	err := invoke(ctx, work)
	t.setErr(err)
	if err != nil {
		handler(t, err)
	}
}

// invoke 执行 work 并把 panic 转为 *PanicError。
func invoke(ctx context.Context, work Work) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return work(ctx)
}

func (t *Thread) setErr(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

// Done 返回线程结束时关闭的 channel。未启动的线程永远不会关闭它。
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Err 返回线程的失败（工作函数返回的错误或 *PanicError）；运行中或成功时返回 nil。
func (t *Thread) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Join 等待线程结束并返回 [Thread.Err]。
//
// ctx 先结束时返回包装了 context 原因的错误；线程本身不受影响。
func (t *Thread) Join(ctx context.Context) error {
	if !t.Started() {
		return ErrThreadNotStarted
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return fmt.Errorf("xthread: join %s: %w", t.label(), context.Cause(ctx))
	}
}

// label 返回用于日志和错误的名称，未命名时回退到 ID。
func (t *Thread) label() string {
	if name := t.Name(); name != "" {
		return name
	}
	return t.id
}

// String 实现 fmt.Stringer。
func (t *Thread) String() string {
	return "Thread[" + t.label() + "]"
}
