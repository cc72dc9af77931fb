// Package xring 提供固定容量的环形缓冲区，用于保留最近的诊断记录。
//
// Ring 在容量写满后，每次追加都会覆盖最旧的一条记录（标准环形淘汰）。
// 淘汰是容量压力下的预期行为，不视为错误。
//
// # 组成
//
//   - [Ring]: 泛型环形缓冲区，Append O(1)，Snapshot 按"最新在前"返回副本
//   - [Handler]: slog.Handler 实现，把日志记录写入 Ring[Entry]
//   - [HTTPHandler]: 运维视图，以 JSON 输出最近的日志记录
//
// # 并发模型
//
// Append、Snapshot、Clear 共享同一把互斥锁，读方永远看不到
// "槽位已覆盖但游标未推进"之类的中间状态。
//
// # 使用示例
//
//	ring, _ := xring.New[xring.Entry](xring.DefaultCapacity)
//	logger := slog.New(xring.NewHandler(ring, nil))
//	logger.Info("started", "port", 8080)
//
//	for _, e := range ring.Snapshot() {
//	    fmt.Println(e.Time, e.Level, e.Message)
//	}
package xring
