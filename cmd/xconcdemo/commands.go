package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xconc/pkg/lifecycle/xrun"
)

// configFlag 每个命令各自持有一个实例，flag 会记录解析状态。
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "配置文件路径（YAML 或 JSON），为空时使用内置默认值",
		Sources: cli.EnvVars("XCONCDEMO_CONFIG"),
	}
}

// loadConfigArg 加载配置，所有失败都归为参数错误。
func loadConfigArg(cmd *cli.Command) (*loadedConfig, error) {
	lc, err := loadConfig(cmd.String("config"))
	if err != nil {
		return nil, &usageError{err: err}
	}
	return lc, nil
}

func createServeCommand(logOutput io.Writer) *cli.Command {
	return &cli.Command{
		Name:         "serve",
		Usage:        "启动宿主进程",
		Flags:        []cli.Flag{configFlag()},
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			lc, err := loadConfigArg(cmd)
			if err != nil {
				return err
			}
			return serve(ctx, lc, logOutput)
		},
	}
}

func serve(ctx context.Context, lc *loadedConfig, logOutput io.Writer, opts ...xrun.Option) (err error) {
	h, err := NewHost(ctx, lc, logOutput)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, h.Close())
	}()

	err = h.Run(ctx, opts...)
	if errors.Is(err, xrun.ErrSignal) {
		h.Logger().Info(ctx, "shutdown complete")
		return nil
	}
	return err
}

func createConfigCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "打印合并默认值后的有效配置",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "输出格式：yaml 或 json",
				Value:   "yaml",
			},
		},
		OnUsageError: onUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			lc, err := loadConfigArg(cmd)
			if err != nil {
				return err
			}
			out, err := lc.render(cmd.String("output"))
			if err != nil {
				return &usageError{err: err}
			}
			if _, err := stdout.Write(out); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			return nil
		},
	}
}
