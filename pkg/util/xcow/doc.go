// Package xcow 提供读多写少场景下的写时复制（copy-on-write）有序列表。
//
// 典型用途是监听器、插件注册表等"注册一次、遍历无数次"的集合：
// 遍历方拿到的是发布那一刻的完整快照，之后的写入不会影响它。
//
// # 并发模型
//
//   - 写操作（Add/AddAll/Remove/RemoveFunc/Replace/Clear）在互斥锁内构造新切片，
//     再通过 atomic.Pointer 一次性发布
//   - 读操作（All/Snapshot/Len/IsEmpty）只做一次原子加载，不加锁
//   - 已发布的切片永不被修改，因此读方看到的要么是旧快照，要么是新快照，不存在中间状态
//
// 写操作是 O(n) 的，适合元素个数在几十到几千之间、写入远少于读取的场景。
//
// # 注意事项
//
//   - 零值可直接使用，等价于空列表
//   - List 不可复制（内部含 sync.Mutex），请传递 *List
//   - Remove 使用 == 比较；若元素是承载 func/map/slice 的接口值，比较会 panic，
//     此时请改用 RemoveFunc
//   - 遍历期间修改列表是安全的，迭代器不会看到这次修改
package xcow
