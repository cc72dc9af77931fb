package xrun

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser 接受可选秒字段的标准表达式与 @every/@hourly 等描述符。
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Schedule 返回按 cron 表达式执行 fn 的服务，例如 "@every 30s"、"0 */5 * * * *"。
//
// 表达式无效时服务返回包装了 [ErrInvalidSchedule] 的错误。fn 在服务所在线程上
// 同步执行，执行期间错过的触发点被跳过。fn 返回错误时服务以该错误结束。
func Schedule(spec string, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sched, err := scheduleParser.Parse(spec)
		if err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, spec, err)
		}
		if fn == nil {
			return ErrNilFunc
		}

		timer := time.NewTimer(time.Until(sched.Next(time.Now())))
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				if err := fn(ctx); err != nil {
					return err
				}
				timer.Reset(time.Until(sched.Next(time.Now())))
			}
		}
	}
}

// ValidateSchedule 检查 cron 表达式是否有效。
func ValidateSchedule(spec string) error {
	if _, err := scheduleParser.Parse(spec); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, spec, err)
	}
	return nil
}
