// Package xpool 提供泛型 worker pool，worker 由 xthread.Factory 创建。
//
//	p, err := xpool.New(4, 128, func(ctx context.Context, job Job) error {
//	    return job.Run(ctx)
//	}, xpool.WithName("jobs"), xpool.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	if err := p.Submit(job); errors.Is(err, xpool.ErrQueueFull) {
//	    // 丢弃或稍后重试
//	}
//
// # 语义
//
//   - New 立即启动 workers 个线程；参数越界返回错误而不是 panic
//   - Submit 永不阻塞：队列满返回 [ErrQueueFull]，关闭后返回 [ErrPoolStopped]
//   - 单个任务 panic 被恢复并连同堆栈记录日志，不影响 worker；任务不会被重试
//   - 任务错误只记录日志（以及观测跨度），不会中止 pool
//   - Shutdown(ctx) 拒绝新任务并等待队列排空；ctx 先到期时返回，
//     剩余任务仍在后台处理，可通过 Done 等待最终完成
//   - 不要在 handler 内调用 Close/Shutdown，否则会等待自己而死锁
//
// panic 日志默认只记录任务类型，避免泄露任务内容；调试时可用 [WithLogTaskValue] 打开。
//
// worker 的 ctx 携带 xthread 线程信息，xlog 的 EnrichHandler 会据此在日志中附加
// thread 与 thread_id。配置 [WithObserver] 后每个任务上报一个跨度（component "xpool"）。
package xpool
