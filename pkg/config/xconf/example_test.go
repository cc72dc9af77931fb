package xconf_test

import (
	"fmt"

	"github.com/omeyang/xconc/pkg/config/xconf"
)

func ExampleNewFromBytes() {
	cfg, err := xconf.NewFromBytes([]byte("pool:\n  workers: 8\n  queue: 64\n"), xconf.FormatYAML)
	if err != nil {
		fmt.Println(err)
		return
	}

	var pool struct {
		Workers int `koanf:"workers"`
		Queue   int `koanf:"queue"`
	}
	if err := cfg.Unmarshal("pool", &pool); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(pool.Workers, pool.Queue)
	fmt.Println(cfg.Reload())
	// Output:
	// 8 64
	// xconf: config is not backed by a file
}
