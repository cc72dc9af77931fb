package xconf

import "github.com/knadh/koanf/v2"

// Format 配置格式。
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置。基础读取请直接使用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回当前的 koanf 实例。
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置解到 target；path 为空表示整个配置。
	Unmarshal(path string, target any) error

	// Reload 重新读取文件。从字节创建的配置返回 [ErrNotFileBacked]。
	Reload() error

	// Path 返回文件路径，从字节创建时为空。
	Path() string

	// Format 返回配置格式。
	Format() Format
}
