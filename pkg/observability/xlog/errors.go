package xlog

import "errors"

var (
	// ErrNilHandler 表示包装的 handler 为 nil。
	ErrNilHandler = errors.New("xlog: nil handler")

	// ErrUnknownLevel 表示无法识别的级别字符串。
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrUnknownFormat 表示无法识别的输出格式。
	ErrUnknownFormat = errors.New("xlog: unknown format")

	// ErrNilRing 表示 SetRing 传入了 nil。
	ErrNilRing = errors.New("xlog: nil ring")

	// ErrBuilderUsed 表示 Builder 已经 Build 过。
	ErrBuilderUsed = errors.New("xlog: builder already used")
)
