package xring_test

import (
	"fmt"
	"log/slog"

	"github.com/omeyang/xconc/pkg/observability/xring"
)

func Example() {
	r, err := xring.New[string](3)
	if err != nil {
		panic(err)
	}
	for _, s := range []string{"a", "b", "c", "d"} {
		r.Append(s)
	}
	fmt.Println(r.Snapshot(), r.Total())
	// Output: [d c b] 4
}

func ExampleNewHandler() {
	r, err := xring.New[xring.Entry](xring.DefaultCapacity)
	if err != nil {
		panic(err)
	}
	h, err := xring.NewHandler(r, nil)
	if err != nil {
		panic(err)
	}
	logger := slog.New(h).With("component", "loader")
	logger.Info("started")
	logger.Warn("slow", slog.Group("stats", slog.Int("ms", 1200)))

	for _, e := range r.Snapshot() {
		fmt.Println(e.Level, e.Message, e.AttrMap())
	}
	// Output:
	// WARN slow map[component:loader stats.ms:1200]
	// INFO started map[component:loader]
}
