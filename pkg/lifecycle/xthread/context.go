package xthread

import "context"

type threadKey struct{}

func withThread(ctx context.Context, t *Thread) context.Context {
	return context.WithValue(ctx, threadKey{}, t)
}

// FromContext 返回 ctx 所属的运行中线程。
//
// 只有通过 Thread.Start 传给工作函数的 ctx（及其派生）才携带线程。
func FromContext(ctx context.Context) (*Thread, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(threadKey{}).(*Thread)
	return t, ok
}
