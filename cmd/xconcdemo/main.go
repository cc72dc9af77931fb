// xconcdemo 是把 xconc 各组件组装在一起的示例宿主进程。
//
// 用法:
//
//	xconcdemo serve  [-c config.yaml]          启动服务
//	xconcdemo config [-c config.yaml] [-o json] 打印合并默认值后的有效配置
//
// serve 启动后提供:
//
//	GET /healthz       存活检查
//	GET /readyz        就绪检查（全部服务启动后 200，关闭中 503）
//	GET /debug/logs    最近日志（?limit=N&level=warn）
//	GET /debug/jobs    任务统计
//	GET /debug/metrics 指标汇总（metrics.enabled 时）
//
// 配置文件从磁盘加载时，修改 log.level 会被热重载。
//
// 退出码:
//
//	0: 成功，或收到终止信号后正常关闭
//	1: 运行失败
//	2: 参数或配置错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// usageError 参数或配置错误，对应退出码 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{err: err}
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xconcdemo",
		Usage:     "xconc 并发原语示例宿主",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			createServeCommand(stderr),
			createConfigCommand(stdout),
		},
		OnUsageError: onUsageError,
		// 退出码由 run 统一映射，不让 cli 直接 os.Exit
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return &usageError{err: fmt.Errorf("unknown command %q", cmd.Args().First())}
			}
			return &usageError{err: errors.New("missing command, see --help")}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := createApp(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}
