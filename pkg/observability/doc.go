// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，自动附加线程与追踪信息
//   - xring: 有界日志环形缓冲，保留最近记录供运维查看
//   - xmetrics: 统一观测接口（追踪 + 指标），OpenTelemetry 实现
//   - xrotate: 日志文件轮转
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 从 context 中提取线程与追踪信息注入日志
//   - 支持动态级别控制
package observability
