package main

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xconc/pkg/config/xconf"
	"github.com/omeyang/xconc/pkg/lifecycle/xrun"
	"github.com/omeyang/xconc/pkg/observability/xlog"
	"github.com/omeyang/xconc/pkg/observability/xring"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

// Config 宿主进程配置。
type Config struct {
	Service ServiceConfig `koanf:"service"`
	HTTP    HTTPConfig    `koanf:"http"`
	Log     LogConfig     `koanf:"log"`
	Jobs    JobsConfig    `koanf:"jobs"`
	Metrics MetricsConfig `koanf:"metrics"`
	Threads ThreadsConfig `koanf:"threads"`
	Watch   WatchConfig   `koanf:"watch"`
}

type ServiceConfig struct {
	Name string `koanf:"name"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level        string `koanf:"level"`
	Format       string `koanf:"format"`
	File         string `koanf:"file"`
	RingCapacity int    `koanf:"ring_capacity"`
	Enrich       bool   `koanf:"enrich"`
}

type JobsConfig struct {
	Interval time.Duration `koanf:"interval"`
	// Schedule 非空时以 cron 表达式产生任务，取代 Interval。
	Schedule string `koanf:"schedule"`
	Workers  int           `koanf:"workers"`
	Queue    int           `koanf:"queue"`
	// FailEvery 每隔多少个任务制造一次失败，0 表示从不。
	FailEvery uint64 `koanf:"fail_every"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type ThreadsConfig struct {
	// WaitTimeout 关闭时等待非守护线程的上限。
	WaitTimeout time.Duration `koanf:"wait_timeout"`
}

type WatchConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Debounce time.Duration `koanf:"debounce"`
}

var errInvalidConfig = errors.New("invalid config")

// loadedConfig 合并默认值后的配置。file 在从文件加载时非 nil，用于热重载。
type loadedConfig struct {
	Config
	merged *koanf.Koanf
	file   xconf.Config
}

// loadConfig 以内嵌默认值为底，叠加 path 指向的 YAML/JSON 文件。path 为空时只用默认值。
func loadConfig(path string) (*loadedConfig, error) {
	defaults, err := xconf.NewFromBytes(defaultConfigYAML, xconf.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	l := &loadedConfig{merged: defaults.Client().Copy()}
	if path != "" {
		file, err := xconf.New(path)
		if err != nil {
			return nil, err
		}
		if err := l.merged.Merge(file.Client()); err != nil {
			return nil, fmt.Errorf("merge %s: %w", path, err)
		}
		l.file = file
	}
	if err := l.merged.UnmarshalWithConf("", &l.Config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (c *Config) validate() error {
	var errs []error
	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Log.RingCapacity < 1 || c.Log.RingCapacity > xring.MaxCapacity {
		errs = append(errs, fmt.Errorf("log.ring_capacity out of range: %d", c.Log.RingCapacity))
	}
	if c.Jobs.Interval <= 0 {
		errs = append(errs, fmt.Errorf("jobs.interval must be positive, got %s", c.Jobs.Interval))
	}
	if c.Jobs.Schedule != "" {
		if err := xrun.ValidateSchedule(c.Jobs.Schedule); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Jobs.Workers < 1 {
		errs = append(errs, fmt.Errorf("jobs.workers must be positive, got %d", c.Jobs.Workers))
	}
	if c.Jobs.Queue < 1 {
		errs = append(errs, fmt.Errorf("jobs.queue must be positive, got %d", c.Jobs.Queue))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	return nil
}

// render 输出合并后的有效配置。
func (l *loadedConfig) render(format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return l.merged.Marshal(yaml.Parser())
	case "json":
		return l.merged.Marshal(json.Parser())
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
