// Package xrun 管理进程内多个长期服务的并发运行与协调关闭。
//
// Group 基于 [errgroup] 传播第一个错误，服务本身运行在 xthread 线程上：
// 每个服务都有名称与 ID，可通过 xthread.FromContext 取得，日志会自动带上。
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("demo"), xrun.WithLogger(logger))
//	g.GoNamed("http", xrun.HTTPServer(srv, 10*time.Second))
//	g.GoNamed("jobs", xrun.Ticker(time.Second, false, tick))
//	err := g.Wait()
//
// # 关闭语义
//
//   - 任一服务返回非 nil 错误时，Group 的 ctx 被取消，其余服务应尽快返回
//   - Cancel(cause) 主动关闭；Wait 返回 cause（cause 为 nil 时返回 nil）
//   - 由取消引起的 context.Canceled 不视为错误
//   - 配置 [WithThreadTracker] 后，Wait 在服务退出后继续等待该 Tracker 上的
//     非守护线程（服务自己派生的后台线程）结束，最长等待指定时长
//
// # 信号
//
// [Run] 与 [RunServices] 额外注册信号监听（默认 [DefaultSignals]），收到信号后以
// *[SignalError] 取消 Group，可用 errors.Is(err, xrun.ErrSignal) 判断。
//
// [errgroup]: https://pkg.go.dev/golang.org/x/sync/errgroup
package xrun
