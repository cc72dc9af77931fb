// Package util 提供通用并发工具相关的子包。
//
// 子包列表：
//   - xcow: 写时复制列表，读路径无锁，适合监听器/订阅者集合
//   - xevent: 一次性信号，可被中断的等待与有界等待
//   - xpool: 泛型 Worker Pool，worker 由 xthread.Factory 创建，支持优雅关闭
//
// 设计原则：
//   - 零值可用或构造函数返回错误，不 panic
//   - 阻塞操作接受 context.Context，中断以错误返回
package util
