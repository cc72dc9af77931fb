// Package xconf 基于 koanf 的配置加载与热重载。
//
// 支持 YAML（.yaml/.yml）与 JSON（.json）。New 从文件加载，NewFromBytes 从内存加载。
//
// # 并发
//
//   - Reload 串行执行，解析成功后以 atomic.Pointer 整体替换 koanf 实例
//   - Client 无锁返回当前实例；旧实例在 Reload 后仍可用，只是数据过期
//   - Unmarshal 读取调用时刻的实例
//
// 推荐每次需要时调用 Client()，不要长期持有返回值。
//
// # 热重载
//
// [Watch] 基于 fsnotify 监视配置文件所在目录（兼容编辑器先写临时文件再 rename 的保存方式），
// 防抖后 Reload 并通知订阅者：
//
//	w, err := xconf.Watch(cfg, xconf.WithWatchLogger(logger))
//	if err != nil {
//	    return err
//	}
//	unsubscribe := w.Subscribe(func(c xconf.Config, err error) {
//	    if err == nil {
//	        applyLevel(c.Client().String("log.level"))
//	    }
//	})
//	defer unsubscribe()
//	if err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Stop()
//
// 订阅者保存在写时复制列表中，通知期间订阅或退订互不阻塞。监视循环运行在
// xthread 线程上（默认守护线程，见 [WithThreadFactory]），退出后 [Watcher.Done] 关闭。
package xconf
