package xrun

import (
	"context"
	"log/slog"
	"os"
	"syscall"
)

// DefaultSignals 返回默认监听的信号：SIGHUP、SIGINT、SIGTERM、SIGQUIT。每次返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
}

// Service 可由 [RunServices] 管理的长期服务。Run 应在 ctx 取消后尽快返回。
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc 将函数适配为 Service。
type ServiceFunc func(ctx context.Context) error

// Run 实现 Service。
func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Run 监听信号并运行 services，直到全部返回。收到信号时返回 *[SignalError]。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 与 Run 相同，但可配置 Group。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	return RunGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			g.Go(svc)
		}
	})
}

// RunServices 监听信号并运行 services；nil Service 以 [ErrNilService] 失败。
func RunServices(ctx context.Context, opts []Option, services ...Service) error {
	return RunGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			if svc == nil {
				g.Go(func(context.Context) error { return ErrNilService })
				continue
			}
			g.Go(svc.Run)
		}
	})
}

// RunGroup 创建 Group、注册信号监听，由 setup 添加服务（可用 GoNamed 命名），然后等待。
func RunGroup(ctx context.Context, opts []Option, setup func(g *Group)) error {
	g, _ := NewGroup(ctx, opts...)
	if !g.opts.noSignalHandler {
		g.GoNamed(g.opts.name+"-signals", g.watchSignals)
	}
	setup(g)
	return g.Wait()
}

// watchSignals 在收到第一个信号时以 *SignalError 取消 Group。
func (g *Group) watchSignals(ctx context.Context) error {
	signals := g.opts.signals
	if len(signals) == 0 {
		// signal.Notify 不带信号时订阅全部信号，这里退回默认列表
		signals = DefaultSignals()
	}
	ch := make(chan os.Signal, 1)
	g.opts.notify(ch, signals...)
	defer g.opts.stop(ch)

	select {
	case sig := <-ch:
		g.opts.logger.Info("received signal",
			slog.String("group", g.opts.name),
			slog.String("signal", sig.String()),
		)
		g.Cancel(&SignalError{Signal: sig})
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
