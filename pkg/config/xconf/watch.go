package xconf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/fsnotify/fsnotify"

	"github.com/omeyang/xconc/pkg/lifecycle/xthread"
	"github.com/omeyang/xconc/pkg/util/xcow"
	"github.com/omeyang/xconc/pkg/util/xevent"
)

// WatchCallback 在每次重载后调用；err 非 nil 表示重载失败或监视出错，此时 cfg 仍是旧配置。
type WatchCallback func(cfg Config, err error)

// WatchOption 配置 Watcher。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce       time.Duration
	factory        xthread.Factory
	logger         *slog.Logger
	reloadAttempts uint
	reloadDelay    time.Duration
}

// WithDebounce 设置防抖间隔，默认 100ms；非正值忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithReloadRetry 设置读取失败（[ErrLoadFailed]）时的重试：最多 attempts 次尝试，
// 首次重试前等待约 delay，之后指数退避。默认 3 次、50ms；attempts 为 1 表示不重试。
// 解析失败不重试。
func WithReloadRetry(attempts uint, delay time.Duration) WatchOption {
	return func(o *watchOptions) {
		if attempts > 0 {
			o.reloadAttempts = attempts
		}
		if delay > 0 {
			o.reloadDelay = delay
		}
	}
}

// WithThreadFactory 设置运行监视循环的线程工厂。
// 默认为守护线程，并记录循环中逃逸的失败。
func WithThreadFactory(f xthread.Factory) WatchOption {
	return func(o *watchOptions) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithWatchLogger 设置日志记录器，默认 slog.Default()。
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(o *watchOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type subscription struct {
	fn WatchCallback
}

// Watcher 监视配置文件并在变更后重载。
type Watcher struct {
	cfg     *koanfConfig
	fsw     *fsnotify.Watcher
	opts    *watchOptions
	subs    xcow.List[*subscription]
	done    xevent.Event
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
	stopped bool
}

// Watch 为从文件创建的 cfg 创建 Watcher。返回后需调用 Start。
func Watch(cfg Config, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok || kc.path == "" {
		return nil, ErrNotFileBacked
	}
	o := &watchOptions{
		debounce:       100 * time.Millisecond,
		logger:         slog.Default(),
		reloadAttempts: 3,
		reloadDelay:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.factory == nil {
		o.factory = xthread.Chain(xthread.New(xthread.WithNamePrefix("xconf-watch")),
			xthread.Daemon,
			func(f xthread.Factory) xthread.Factory { return xthread.LogFailures(f, o.logger) },
		)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	// 监视目录而不是文件：编辑器保存时可能先删除再创建
	dir := filepath.Dir(kc.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fsw.Close())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{cfg: kc, fsw: fsw, opts: o, ctx: ctx, cancel: cancel}, nil
}

// Subscribe 注册回调，返回退订函数（可重复调用）。
func (w *Watcher) Subscribe(fn WatchCallback) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s := &subscription{fn: fn}
	w.subs.Add(s)
	var once sync.Once
	return func() {
		once.Do(func() { w.subs.Remove(s) })
	}
}

// Subscribers 返回当前订阅数。
func (w *Watcher) Subscribers() int {
	return w.subs.Len()
}

// Start 在新线程上启动监视循环。
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.stopped:
		return ErrWatcherStopped
	case w.started:
		return ErrWatcherStarted
	}

	t, err := w.opts.factory.NewThread(w.ctx, w.loop)
	if err != nil {
		return fmt.Errorf("xconf: create watch thread: %w", err)
	}
	if err := t.Start(); err != nil {
		return fmt.Errorf("xconf: start watch thread: %w", err)
	}
	w.started = true
	return nil
}

// Stop 停止监视并释放 fsnotify 资源。可重复调用；可在回调中调用。
// 需要等待循环退出时使用 [Watcher.Done]。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	w.cancel()
	if !w.started {
		w.done.Signal()
	}
	return w.fsw.Close()
}

// Done 返回监视循环退出时关闭的 channel。
func (w *Watcher) Done() <-chan struct{} {
	return w.done.Done()
}

func (w *Watcher) loop(ctx context.Context) error {
	defer w.done.Signal()

	filename := filepath.Base(w.cfg.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.opts.logger.LogAttrs(ctx, slog.LevelDebug, "config watch started", slog.String("path", w.cfg.path))
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, filename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.debounce)
			} else {
				timer.Reset(w.opts.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.notify(ctx, fmt.Errorf("xconf: watch error: %w", err))

		case <-fire:
			fire = nil
			if ctx.Err() != nil {
				return nil
			}
			err := w.reload(ctx)
			if err != nil {
				w.opts.logger.LogAttrs(ctx, slog.LevelWarn, "config reload failed",
					slog.String("path", w.cfg.path), slog.Any("error", err))
			} else {
				w.opts.logger.LogAttrs(ctx, slog.LevelInfo, "config reloaded", slog.String("path", w.cfg.path))
			}
			w.notify(ctx, err)
		}
	}
}

// reload 重试读取失败：原子保存时文件可能短暂不存在。
func (w *Watcher) reload(ctx context.Context) error {
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(w.opts.reloadAttempts),
		retry.Delay(w.opts.reloadDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrLoadFailed) }),
		retry.LastErrorOnly(true),
	).Do(w.cfg.Reload)
}

// relevant 只关心目标文件的写入、创建与 rename（原子保存）。
func relevant(ev fsnotify.Event, filename string) bool {
	if filepath.Base(ev.Name) != filename {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// notify 依次调用订阅者；单个回调 panic 只记录日志，不影响其他订阅者。
func (w *Watcher) notify(ctx context.Context, err error) {
	for s := range w.subs.All() {
		w.call(ctx, s, err)
	}
}

func (w *Watcher) call(ctx context.Context, s *subscription, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.opts.logger.LogAttrs(ctx, slog.LevelError, "config watch callback panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	s.fn(w.cfg, err)
}
