package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器。实现必须并发安全。
//
// Close 之后 Write 与 Rotate 返回 [ErrClosed]，重复 Close 同样返回 [ErrClosed]。
type Rotator interface {
	// Write 写入数据，达到轮转条件时自动轮转。
	Write(p []byte) (n int, err error)

	// Close 关闭当前文件。
	Close() error

	// Rotate 立即轮转：当前文件改名为备份，新建日志文件。
	Rotate() error
}
