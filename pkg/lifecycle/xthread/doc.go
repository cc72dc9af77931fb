// Package xthread 提供可组合的线程（goroutine）创建装饰器。
//
// Thread 是一个尚未启动的 goroutine 句柄：创建后可以调整名称、守护属性、
// 运行 context 和失败处理器，调用 Start 后才真正运行。Factory 负责创建 Thread，
// Decorator 在创建后、启动前调整属性，可以任意叠加：
//
//	factory := xthread.Chain(xthread.New(),
//	    xthread.Daemon,
//	    func(f xthread.Factory) xthread.Factory { return xthread.LogFailures(f, logger) },
//	)
//	t, err := factory.NewThread(ctx, func(ctx context.Context) error {
//	    return poll(ctx)
//	})
//	if err != nil {
//	    return err
//	}
//	_ = t.Start()
//
// Chain 中第一个装饰器位于最外层，最后执行；因此外层装饰器设置的属性会覆盖内层。
//
// # 内置装饰器
//
//   - [Daemon]: 守护线程不注册到 [Tracker]，不阻塞关闭流程
//   - [LogFailures]: 记录逃逸出工作函数的失败（panic 或返回的错误），每次失败一条日志
//   - [StableContext]: 将线程 context 固定为构造时给定的 context，不继承创建方的取消
//   - [Named]: 按 "prefix-1"、"prefix-2" 顺序命名
//   - [Observed]: 每次运行作为一个 xmetrics 跨度上报
//
// # 失败处理
//
// 安装了 FailureHandler 的线程会恢复 panic，将其包装为 [*PanicError] 交给处理器；
// 工作函数返回的非 nil 错误同样交给处理器。未安装处理器时不做任何恢复，
// panic 按 Go 的默认行为终止进程。
//
// # 取消
//
// 线程内的中断通过 context 取消表达：工作函数应监听 ctx.Done()。
// 运行中的 Thread 可通过 [FromContext] 从工作函数的 ctx 中取回。
package xthread
