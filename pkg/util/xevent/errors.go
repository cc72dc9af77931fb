package xevent

import "errors"

// ErrInterrupted 表示 Wait 在事件触发前因 context 取消而返回。
//
// 返回的错误同时包装了 context.Cause，可用 errors.Is(err, context.DeadlineExceeded)
// 等方式进一步区分中断原因。
var ErrInterrupted = errors.New("xevent: wait interrupted")
