package xrun

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Ticker 返回每隔 interval 执行一次 fn 的服务；immediate 为 true 时先执行一次。
// fn 返回错误时服务以该错误结束。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		if immediate {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			}
		}
	}
}

// Timer 返回在 delay 后执行一次 fn 的服务。delay 为 0 时立即执行。
func Timer(delay time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if delay < 0 {
			return ErrInvalidDelay
		}
		if fn == nil {
			return ErrNilFunc
		}
		if delay == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx)
		}

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fn(ctx)
		}
	}
}

// WaitForDone 返回阻塞到 ctx 取消的占位服务。
func WaitForDone() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
}

// Server 抽象 HTTP 服务器，*http.Server 满足该接口。
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServer 返回运行 server 的服务：ctx 取消后以 shutdownTimeout（非正值不限时）优雅关闭。
//
// 由外部直接 Shutdown 导致的退出返回 nil；启动失败（如端口占用）返回原始错误。
func HTTPServer(server Server, shutdownTimeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if server == nil {
			return ErrNilServer
		}
		shutdownErr := make(chan error, 1)
		served := make(chan struct{})
		go func() {
			select {
			case <-served:
			case <-ctx.Done():
				sctx := context.WithoutCancel(ctx)
				if shutdownTimeout > 0 {
					var cancel context.CancelFunc
					sctx, cancel = context.WithTimeout(sctx, shutdownTimeout)
					defer cancel()
				}
				shutdownErr <- server.Shutdown(sctx)
			}
		}()

		err := server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			close(served)
			return err
		}
		select {
		case <-ctx.Done():
			// ctx 驱动的关闭：等 Shutdown 返回，确保在途请求已处理
			return <-shutdownErr
		default:
			close(served)
			return nil
		}
	}
}
