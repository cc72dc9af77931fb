// Package xevent 提供一次性信号（one-shot event），用于"等待就绪"类协调。
//
// Event 只会发生一次状态迁移：未触发 → 已触发，此后永远保持已触发。
// 典型场景：启动完成通知、生产者/消费者交接、关闭握手。
//
// # 基本用法
//
//	var ready xevent.Event
//
//	go func() {
//	    initialize()
//	    ready.Signal()
//	}()
//
//	if err := ready.Wait(ctx); err != nil {
//	    return err // ctx 被取消，err 同时满足 errors.Is(err, xevent.ErrInterrupted)
//	}
//
// # 语义
//
//   - Signal 幂等、非阻塞；首次调用唤醒所有正在等待的协程（广播）
//   - Wait 阻塞直到已触发；ctx 取消是唯一的提前中断方式，返回包装了
//     [ErrInterrupted] 和 context 原因的错误，不会被静默吞掉
//   - WaitTimeout 有界等待，返回值明确区分"已触发"与"超时"，调用方无需再次轮询
//   - Done 返回在触发时关闭的 channel，便于与其他 channel 一起 select
//
// 零值即可使用。Event 不可复制。
package xevent
