// Package xrotate 提供按大小轮转的日志文件写入器。
//
// [Rotator] 是 io.WriteCloser 加上手动 Rotate；[NewLumberjack] 基于
// gopkg.in/natefinch/lumberjack.v2 实现，xlog.Builder.SetRotation 直接使用它。
//
//	w, err := xrotate.NewLumberjack("/var/log/app/app.log",
//	    xrotate.WithMaxSize(100),
//	    xrotate.WithMaxBackups(5),
//	)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
// 关闭后的 Write/Rotate 返回 [ErrClosed]。
package xrotate
