package xrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Group 并发运行一组服务，任一服务失败或被 Cancel 时取消全部。
//
// Go、GoNamed、Cancel 可并发调用；Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context // errgroup 派生，传给服务
	causeCtx context.Context // 记录 Cancel 的原因
	cancel   context.CancelCauseFunc
	opts     *options
}

// NewGroup 创建 Group，返回的 ctx 在任一服务失败或 Cancel 时取消。nil ctx 视为 Background。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     applyOptions(opts),
	}, egCtx
}

// Go 在新线程上运行 fn，线程名由工厂决定。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.spawn("", fn)
}

// GoNamed 与 Go 相同，但把线程命名为 name 并记录启停日志。
func (g *Group) GoNamed(name string, fn func(ctx context.Context) error) {
	g.spawn(name, fn)
}

func (g *Group) spawn(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		t, err := g.opts.factory.NewThread(g.ctx, fn)
		if err != nil {
			return fmt.Errorf("xrun: create thread: %w", err)
		}
		if name != "" {
			if err := t.SetName(name); err != nil {
				return fmt.Errorf("xrun: name thread: %w", err)
			}
		}
		log := g.opts.logger.With(slog.String("group", g.opts.name), slog.String("service", t.Name()))
		if err := t.Start(); err != nil {
			return fmt.Errorf("xrun: start %s: %w", t, err)
		}
		log.Debug("service started", slog.String("thread_id", t.ID()))

		<-t.Done()
		err = t.Err()
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("service exited with error", slog.Any("error", err))
		} else {
			log.Debug("service stopped")
		}
		return err
	})
}

// Wait 等待所有服务返回，并按需等待 [WithThreadTracker] 的线程。
//
// 返回第一个服务错误；Group 因取消而退出时返回 Cancel 的原因，
// 原因为空或仅为 context.Canceled 时返回 nil。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.result(g.eg.Wait())
	g.opts.logger.Debug("all services stopped", slog.String("group", g.opts.name))

	if g.opts.tracker == nil {
		return err
	}
	return errors.Join(err, g.waitThreads())
}

func (g *Group) result(err error) error {
	cancelled := g.causeCtx.Err() != nil
	cause := context.Cause(g.causeCtx)
	explicit := cancelled && cause != nil && !errors.Is(cause, context.Canceled)

	switch {
	case err == nil:
		if explicit {
			return cause
		}
		return nil
	case errors.Is(err, context.Canceled) && cancelled:
		// 取消引起的退出：只保留有意义的原因
		if explicit {
			return cause
		}
		return nil
	default:
		return err
	}
}

func (g *Group) waitThreads() error {
	ctx := context.Background()
	if g.opts.trackerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.trackerTimeout)
		defer cancel()
	}
	if err := g.opts.tracker.Wait(ctx); err != nil {
		g.opts.logger.Warn("threads still running after shutdown",
			slog.String("group", g.opts.name),
			slog.Int("active", g.opts.tracker.Active()),
		)
		return fmt.Errorf("xrun: %w", err)
	}
	return nil
}

// Cancel 取消所有服务，cause 作为 Wait 的返回值。
//
// cause 不应包装 context.Canceled，否则会被视为普通取消。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回传给服务的 ctx。
func (g *Group) Context() context.Context {
	return g.ctx
}
