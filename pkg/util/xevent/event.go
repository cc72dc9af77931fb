package xevent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Event 一次性信号。
type Event struct {
	mu       sync.Mutex
	ch       chan struct{} // 惰性创建，触发时关闭
	signaled atomic.Bool
}

// New 创建未触发的 Event。零值同样可用，New 仅为与其他包的构造风格保持一致。
func New() *Event {
	return &Event{ch: make(chan struct{})}
}

// channel 返回广播 channel，必要时创建。
func (e *Event) channel() chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ch == nil {
		e.ch = make(chan struct{})
	}
	return e.ch
}

// Signal 触发事件并唤醒所有等待者。重复调用无副作用。
func (e *Event) Signal() {
	if e.signaled.Load() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.signaled.Load() {
		return
	}
	if e.ch == nil {
		e.ch = make(chan struct{})
	}
	e.signaled.Store(true)
	close(e.ch)
}

// IsSignaled 非阻塞查询是否已触发。
func (e *Event) IsSignaled() bool {
	return e.signaled.Load()
}

// Done 返回在事件触发时关闭的 channel。
func (e *Event) Done() <-chan struct{} {
	return e.channel()
}

// Wait 阻塞直到事件触发或 ctx 被取消。
//
// 已触发时返回 nil；ctx 先结束时返回包装了 [ErrInterrupted] 与 context.Cause 的错误。
// 两者同时就绪时以已触发为准。nil ctx 视为 context.Background()。
func (e *Event) Wait(ctx context.Context) error {
	if e.signaled.Load() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-e.channel():
		return nil
	case <-ctx.Done():
		if e.signaled.Load() {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	}
}

// WaitTimeout 最多等待 d，返回事件是否已触发。
//
// d <= 0 时等价于 IsSignaled。返回 false 仅表示在 d 内未观察到触发。
func (e *Event) WaitTimeout(d time.Duration) bool {
	if e.signaled.Load() {
		return true
	}
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-e.channel():
		return true
	case <-timer.C:
		return e.signaled.Load()
	}
}
