// Package lifecycle 提供线程与进程生命周期相关的子包。
//
// 子包列表：
//   - xthread: 线程抽象与可组合的线程工厂链（命名、守护、稳定 ctx、失败日志、观测）
//   - xrun: 基于 errgroup 的多服务运行与协调关闭，服务运行在 xthread 线程上
package lifecycle
