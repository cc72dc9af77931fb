package xlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobal_DefaultIsLazy(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	l := Default()
	require.NotNil(t, l)
	assert.Same(t, l, Default())
	assert.Equal(t, LevelInfo, l.GetLevel())
}

func TestGlobal_SetDefault(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	logger, buf := buildJSON(t, New().SetLevel(LevelDebug).SetAddSource(true))
	SetDefault(logger)
	SetDefault(nil)

	ctx := context.Background()
	Debug(ctx, "d")
	Info(ctx, "i")
	Warn(ctx, "w")
	Error(ctx, "e")
	Stack(ctx, "s")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 5)
	for _, line := range lines {
		src, ok := line["source"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, src["file"], "global_test.go")
	}
	assert.Contains(t, lines[4][KeyStack], "TestGlobal_SetDefault")
}

func TestGlobal_FallbackOnBuildError(t *testing.T) {
	ResetDefault()
	old := newBuilder
	newBuilder = func() *Builder { return New().SetFormat("xml") }
	t.Cleanup(func() {
		newBuilder = old
		ResetDefault()
	})

	l := Default()
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.Info(context.Background(), "fallback") })
}

// recordingLogger 只嵌入接口，不是 *xlogger。
type recordingLogger struct {
	LoggerWithLevel
}

func TestGlobal_NonXloggerImplementation(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	inner, buf := buildJSON(t, New().SetLevel(LevelDebug))
	SetDefault(recordingLogger{LoggerWithLevel: inner})

	ctx := context.Background()
	Debug(ctx, "d")
	Info(ctx, "i")
	Warn(ctx, "w")
	Error(ctx, "e")
	Stack(ctx, "s")
	assert.Len(t, decodeLines(t, buf), 5)
}
