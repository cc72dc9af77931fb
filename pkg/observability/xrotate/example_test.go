package xrotate_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/omeyang/xconc/pkg/observability/xrotate"
)

func ExampleNewLumberjack() {
	dir, err := os.MkdirTemp("", "xrotate-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	w, err := xrotate.NewLumberjack(filepath.Join(dir, "app.log"),
		xrotate.WithMaxSize(10),
		xrotate.WithMaxBackups(3),
		xrotate.WithCompress(false),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	_, _ = w.Write([]byte("started\n"))
	fmt.Println(w.Close())
	// Output: <nil>
}
