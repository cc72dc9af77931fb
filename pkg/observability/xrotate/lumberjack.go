package xrotate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 默认配置。
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30
	DefaultCompress   = true

	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

type config struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool
	fileMode   os.FileMode
	onError    func(error)
}

// Option 配置 lumberjack 轮转器。
type Option func(*config)

// WithMaxSize 设置单个文件的最大大小（MB），超过即轮转。
func WithMaxSize(mb int) Option {
	return func(c *config) { c.maxSizeMB = mb }
}

// WithMaxBackups 设置保留的备份数，0 表示只按天数清理。
func WithMaxBackups(n int) Option {
	return func(c *config) { c.maxBackups = n }
}

// WithMaxAge 设置备份保留天数，0 表示只按数量清理。
func WithMaxAge(days int) Option {
	return func(c *config) { c.maxAgeDays = days }
}

// WithCompress 设置是否 gzip 压缩备份。
func WithCompress(compress bool) Option {
	return func(c *config) { c.compress = compress }
}

// WithLocalTime 设置备份文件名是否使用本地时间，默认 UTC。
func WithLocalTime(local bool) Option {
	return func(c *config) { c.localTime = local }
}

// WithFileMode 设置日志文件权限（仅低 9 位）。0 表示沿用 lumberjack 的 0600。
//
// lumberjack 不暴露权限配置，这里在首次写入和每次轮转后 chmod。
func WithFileMode(mode os.FileMode) Option {
	return func(c *config) { c.fileMode = mode }
}

// WithOnError 设置内部错误（如 chmod 失败）的回调。
// 回调不得写回同一个 Rotator，否则会死锁。
func WithOnError(fn func(error)) Option {
	return func(c *config) { c.onError = fn }
}

func (c *config) validate() error {
	switch {
	case c.maxSizeMB <= 0 || c.maxSizeMB > maxSizeMB:
		return fmt.Errorf("%w: %d", ErrInvalidMaxSize, c.maxSizeMB)
	case c.maxBackups < 0 || c.maxBackups > maxBackups:
		return fmt.Errorf("%w: %d", ErrInvalidMaxBackups, c.maxBackups)
	case c.maxAgeDays < 0 || c.maxAgeDays > maxAgeDays:
		return fmt.Errorf("%w: %d", ErrInvalidMaxAge, c.maxAgeDays)
	case c.maxBackups == 0 && c.maxAgeDays == 0:
		return ErrNoCleanupPolicy
	case c.fileMode&^os.ModePerm != 0:
		return fmt.Errorf("%w: %v", ErrInvalidFileMode, c.fileMode)
	}
	return nil
}

type lumberjackRotator struct {
	mu        sync.Mutex
	logger    *lumberjack.Logger
	cfg       config
	closed    bool
	modeFixed bool // 当前文件的权限是否已调整
}

// NewLumberjack 创建写入 filename 的轮转器，必要时创建所在目录。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg := config{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
		compress:   DefaultCompress,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	path := filepath.Clean(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("xrotate: create log dir: %w", err)
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
		cfg: cfg,
	}, nil
}

// Write 实现 io.Writer。
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err == nil && !r.modeFixed {
		r.fixMode()
	}
	return n, err
}

// Rotate 立即轮转。
func (r *lumberjackRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		return err
	}
	r.modeFixed = false
	r.fixMode()
	return nil
}

// Close 关闭当前文件。
func (r *lumberjackRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	return r.logger.Close()
}

// fixMode 调用方持有 r.mu。
func (r *lumberjackRotator) fixMode() {
	if r.cfg.fileMode == 0 {
		r.modeFixed = true
		return
	}
	if err := os.Chmod(r.logger.Filename, r.cfg.fileMode); err != nil {
		if r.cfg.onError != nil {
			r.cfg.onError(fmt.Errorf("xrotate: chmod %s: %w", r.logger.Filename, err))
		}
		return
	}
	r.modeFixed = true
}
