package xthread

import (
	"errors"
	"fmt"
)

var (
	// ErrNilWork 表示工作函数为 nil。
	ErrNilWork = errors.New("xthread: nil work")

	// ErrNilFactory 表示装饰器包装的内层 Factory 为 nil。
	ErrNilFactory = errors.New("xthread: nil factory")

	// ErrThreadStarted 表示线程已启动，不能再修改属性或重复启动。
	ErrThreadStarted = errors.New("xthread: thread already started")

	// ErrThreadNotStarted 表示对尚未启动的线程调用了 Join。
	ErrThreadNotStarted = errors.New("xthread: thread not started")

	// ErrWaitInterrupted 表示 Tracker.Wait 在所有线程结束前因 context 取消而返回。
	ErrWaitInterrupted = errors.New("xthread: wait interrupted")
)

// PanicError 是工作函数 panic 后交给 FailureHandler 的失败。
type PanicError struct {
	// Value 是 recover() 得到的原始值。
	Value any
	// Stack 是 panic 发生时的协程堆栈。
	Stack []byte
}

// Error 实现 error 接口。
func (e *PanicError) Error() string {
	return fmt.Sprintf("xthread: panic: %v", e.Value)
}

// Unwrap 在 panic 值本身是 error 时返回它，便于 errors.Is/As 穿透。
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
