// Package xlog 基于 log/slog 的结构化日志库。
//
// # 创建 Logger
//
// Builder 采用 first-error-wins：遇到第一个配置错误后，后续 Set 不再生效，
// 错误在 Build 时返回。Builder 只能使用一次。
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString(cfg.Level).
//	    SetFormat("json").
//	    SetRotation(cfg.File, xrotate.WithMaxSize(100)).
//	    SetRing(ring).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// SetRing 把每条记录同时写入一个 xring.Ring，配合 xring.HTTPHandler
// 提供运维侧的"最近日志"视图。
//
// # Context 注入
//
// EnrichHandler（默认启用）从 ctx 中提取：
//   - thread / thread_id: 当前 xthread 线程（工作函数的 ctx 携带）
//   - trace_id / span_id: 当前 OpenTelemetry span
//
// 对启用了 enrich 的 logger 调用 WithGroup 时，注入字段会归入该分组。
//
// # 低层包
//
// xthread、xpool、xrun、xconf 接受 *slog.Logger；[LoggerWithLevel.Slog]
// 返回共享同一 handler 链与级别的 *slog.Logger。
//
// # 全局 Logger
//
// [Default] 惰性初始化（stderr、Info、text），[SetDefault] 替换，
// [ResetDefault] 仅用于测试。
package xlog
