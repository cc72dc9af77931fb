package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置文件失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 解析配置内容失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 反序列化到结构体失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrNotFileBacked 配置不是从文件创建的，无法 Reload 或 Watch。
	ErrNotFileBacked = errors.New("xconf: config is not backed by a file")

	// ErrWatcherStarted Watcher 已启动。
	ErrWatcherStarted = errors.New("xconf: watcher already started")

	// ErrWatcherStopped Watcher 已停止，不能再启动。
	ErrWatcherStopped = errors.New("xconf: watcher stopped")
)
