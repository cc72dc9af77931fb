package xring

import (
	"fmt"
	"sync"
)

const (
	// DefaultCapacity 默认容量，适合作为进程内最近日志的保留条数。
	DefaultCapacity = 256

	// MaxCapacity 容量上限。
	MaxCapacity = 1 << 20
)

// Ring 固定容量的环形缓冲区。
type Ring[T any] struct {
	mu     sync.Mutex
	buf    []T
	cursor int    // 下一次写入的位置
	size   int    // 当前保留的记录数，<= len(buf)
	total  uint64 // 累计追加次数
}

// New 创建容量为 capacity 的 Ring。
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidCapacity, capacity, MaxCapacity)
	}
	return &Ring[T]{buf: make([]T, capacity)}, nil
}

// Append 追加一条记录；已满时覆盖最旧的记录。
func (r *Ring[T]) Append(rec T) {
	r.mu.Lock()
	r.buf[r.cursor] = rec
	r.cursor++
	if r.cursor == len(r.buf) {
		r.cursor = 0
	}
	if r.size < len(r.buf) {
		r.size++
	}
	r.total++
	r.mu.Unlock()
}

// Snapshot 返回当前保留的记录副本，最新的在前。
// 长度为 min(累计追加数, 容量)。不修改内部状态。
func (r *Ring[T]) Snapshot() []T {
	return r.Last(-1)
}

// Last 返回最新的至多 n 条记录，最新的在前；n < 0 表示全部。
func (r *Ring[T]) Last(n int) []T {
	out, _ := r.lastWithTotal(n)
	return out
}

// lastWithTotal 在同一临界区内读取记录与累计计数，两者描述同一时刻。
func (r *Ring[T]) lastWithTotal(n int) ([]T, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n < 0 || n > r.size {
		n = r.size
	}
	out := make([]T, n)
	idx := r.cursor
	for i := range n {
		idx--
		if idx < 0 {
			idx = len(r.buf) - 1
		}
		out[i] = r.buf[idx]
	}
	return out, r.total
}

// Clear 丢弃所有记录并释放其引用。累计计数不清零。
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	clear(r.buf)
	r.cursor = 0
	r.size = 0
	r.mu.Unlock()
}

// Len 返回当前保留的记录数。
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap 返回容量。
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Total 返回累计追加的记录数（包括已被淘汰的）。
func (r *Ring[T]) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
