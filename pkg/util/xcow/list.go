package xcow

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"
)

// List 写时复制的有序列表。
//
// 读路径无锁，写路径串行；每次写入都会发布一个全新的不可变快照。
type List[E comparable] struct {
	mu   sync.Mutex // 仅串行化写路径
	snap atomic.Pointer[[]E]
}

// New 创建列表，可选地以 initial 作为初始内容（会被复制）。
func New[E comparable](initial ...E) *List[E] {
	l := &List[E]{}
	if len(initial) > 0 {
		s := slices.Clone(initial)
		l.snap.Store(&s)
	}
	return l
}

// load 返回当前快照。返回的切片只读。
func (l *List[E]) load() []E {
	if p := l.snap.Load(); p != nil {
		return *p
	}
	return nil
}

// publish 发布新快照，调用方必须持有 mu。
func (l *List[E]) publish(s []E) {
	l.snap.Store(&s)
}

// Add 在列表末尾追加元素。
func (l *List[E]) Add(e E) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.load()
	next := make([]E, len(old), len(old)+1)
	copy(next, old)
	l.publish(append(next, e))
}

// AddAll 追加多个元素，只发布一次快照。
func (l *List[E]) AddAll(es ...E) {
	if len(es) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.load()
	next := make([]E, 0, len(old)+len(es))
	next = append(next, old...)
	l.publish(append(next, es...))
}

// Remove 删除第一个等于 e 的元素。
// 元素不存在时返回 false，列表保持不变。
func (l *List[E]) Remove(e E) bool {
	return l.RemoveFunc(func(x E) bool { return x == e })
}

// RemoveFunc 删除第一个满足 match 的元素。
// match 在写锁内调用，不得再调用本列表的写方法。
func (l *List[E]) RemoveFunc(match func(E) bool) bool {
	if match == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.load()
	i := slices.IndexFunc(old, match)
	if i < 0 {
		return false
	}
	next := make([]E, 0, len(old)-1)
	next = append(next, old[:i]...)
	l.publish(append(next, old[i+1:]...))
	return true
}

// Replace 用 es 的副本整体替换列表内容。
func (l *List[E]) Replace(es []E) {
	next := slices.Clone(es)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publish(next)
}

// Clear 清空列表。
func (l *List[E]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publish(nil)
}

// All 返回当前快照上的迭代器。
//
// 快照在调用 All 时即被捕获，而不是在开始 range 时；
// 之后的任何写入都不会反映到这个迭代器中。
func (l *List[E]) All() iter.Seq[E] {
	s := l.load()
	return func(yield func(E) bool) {
		for _, e := range s {
			if !yield(e) {
				return
			}
		}
	}
}

// Snapshot 返回当前内容的副本，调用方可以随意修改。
func (l *List[E]) Snapshot() []E {
	return slices.Clone(l.load())
}

// Len 返回当前快照的元素个数。
func (l *List[E]) Len() int {
	return len(l.load())
}

// IsEmpty 当前快照是否为空。
func (l *List[E]) IsEmpty() bool {
	return l.Len() == 0
}
