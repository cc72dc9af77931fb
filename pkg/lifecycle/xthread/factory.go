package xthread

import (
	"context"
	"strconv"
	"sync/atomic"
)

//go:generate mockgen -source=factory.go -destination=mock_factory_test.go -package=xthread

// Factory 创建尚未启动的线程。
//
// 返回的 Thread 已应用所有配置的属性；创建失败只会来自内层 Factory 的错误。
type Factory interface {
	NewThread(ctx context.Context, work Work) (*Thread, error)
}

// FactoryFunc 将函数适配为 Factory。
type FactoryFunc func(ctx context.Context, work Work) (*Thread, error)

// NewThread 实现 Factory。
func (f FactoryFunc) NewThread(ctx context.Context, work Work) (*Thread, error) {
	return f(ctx, work)
}

// Decorator 包装一个 Factory，在其创建的线程启动前调整属性。
type Decorator func(Factory) Factory

// Chain 依次用 decorators 包装 base。第一个装饰器位于最外层。
// nil 装饰器会被跳过。
func Chain(base Factory, decorators ...Decorator) Factory {
	f := base
	for i := len(decorators) - 1; i >= 0; i-- {
		if decorators[i] == nil {
			continue
		}
		f = decorators[i](f)
	}
	return f
}

type baseFactory struct {
	opts *options
	seq  atomic.Uint64
}

// New 创建基础 Factory：线程继承调用方 ctx，非守护，注册到 Tracker，
// 默认名称为 "thread-N"。
func New(opts ...Option) Factory {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return &baseFactory{opts: o}
}

// NewThread 实现 Factory。work 为 nil 时返回 [ErrNilWork]。
func (f *baseFactory) NewThread(ctx context.Context, work Work) (*Thread, error) {
	if work == nil {
		return nil, ErrNilWork
	}
	t := newThread(ctx, work, f.opts.tracker)
	t.name = f.opts.prefix + "-" + strconv.FormatUint(f.seq.Add(1), 10)
	return t, nil
}

// decorate 创建在 inner 产出的线程上执行 apply 的 Factory。
func decorate(inner Factory, apply func(t *Thread) error) Factory {
	return FactoryFunc(func(ctx context.Context, work Work) (*Thread, error) {
		if inner == nil {
			return nil, ErrNilFactory
		}
		t, err := inner.NewThread(ctx, work)
		if err != nil {
			return nil, err
		}
		if err := apply(t); err != nil {
			return nil, err
		}
		return t, nil
	})
}
