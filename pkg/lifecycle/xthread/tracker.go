package xthread

import (
	"context"
	"fmt"
	"sync"
)

// Tracker 统计运行中的非守护线程，供关闭流程等待它们结束。零值可用。
type Tracker struct {
	mu     sync.Mutex
	active int
	idle   chan struct{} // active 降为 0 时关闭，随后置 nil
}

// NewTracker 创建 Tracker。
func NewTracker() *Tracker {
	return &Tracker{}
}

var defaultTracker = NewTracker()

// DefaultTracker 返回进程级默认 Tracker，[New] 未指定 [WithTracker] 时使用。
func DefaultTracker() *Tracker {
	return defaultTracker
}

func (tr *Tracker) add() {
	tr.mu.Lock()
	tr.active++
	tr.mu.Unlock()
}

func (tr *Tracker) release() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.active--
	if tr.active == 0 && tr.idle != nil {
		close(tr.idle)
		tr.idle = nil
	}
}

// Active 返回运行中的非守护线程数。
func (tr *Tracker) Active() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.active
}

// Wait 阻塞直到没有运行中的非守护线程。
//
// ctx 先结束时返回包装了 [ErrWaitInterrupted] 与 context 原因的错误。
func (tr *Tracker) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tr.mu.Lock()
	if tr.active == 0 {
		tr.mu.Unlock()
		return nil
	}
	if tr.idle == nil {
		tr.idle = make(chan struct{})
	}
	idle := tr.idle
	tr.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %d thread(s) still running: %w", ErrWaitInterrupted, tr.Active(), context.Cause(ctx))
	}
}
