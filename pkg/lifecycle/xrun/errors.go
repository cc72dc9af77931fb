package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNilFunc 服务函数为 nil。
	ErrNilFunc = errors.New("xrun: nil service func")

	// ErrNilService Service 为 nil。
	ErrNilService = errors.New("xrun: nil service")

	// ErrNilServer HTTPServer 的 server 为 nil。
	ErrNilServer = errors.New("xrun: nil server")

	// ErrInvalidInterval Ticker 的间隔必须为正数。
	ErrInvalidInterval = errors.New("xrun: interval must be positive")

	// ErrInvalidDelay Timer 的延迟不能为负数。
	ErrInvalidDelay = errors.New("xrun: delay must not be negative")

	// ErrInvalidSchedule cron 表达式无效。
	ErrInvalidSchedule = errors.New("xrun: invalid schedule")

	// ErrSignal 因收到系统信号而退出。具体信号见 [SignalError]。
	ErrSignal = errors.New("xrun: received signal")
)

// SignalError 记录触发退出的信号。
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("xrun: received signal %v", e.Signal)
}

// Unwrap 使 errors.Is(err, ErrSignal) 成立。
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
