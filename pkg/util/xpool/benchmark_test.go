package xpool

import (
	"context"
	"errors"
	"testing"
)

func BenchmarkPool_Submit(b *testing.B) {
	p, err := New(4, 1024, func(context.Context, int) error { return nil }, discard())
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = p.Close() }()

	b.ReportAllocs()
	for b.Loop() {
		if err := p.Submit(1); err != nil && !errors.Is(err, ErrQueueFull) {
			b.Fatal(err)
		}
	}
}
