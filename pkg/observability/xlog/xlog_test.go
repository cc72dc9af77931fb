package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xconc/pkg/observability/xring"
	"github.com/omeyang/xconc/pkg/observability/xrotate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

func buildJSON(t *testing.T, b *Builder) (LoggerWithLevel, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, cleanup, err := b.SetOutput(&buf).SetFormat("json").Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestBuilder_Defaults(t *testing.T) {
	logger, buf := buildJSON(t, New())
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	logger.Info(ctx, "shown", slog.Int("n", 1))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, float64(1), lines[0]["n"])
	assert.Equal(t, LevelInfo, logger.GetLevel())
}

func TestBuilder_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).SetFormat(" TEXT ").Build()
	require.NoError(t, err)
	logger.Warn(context.Background(), "careful", Component("loader"))
	assert.Contains(t, buf.String(), `level=WARN msg=careful component=loader`)
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	_, _, err := New().SetFormat("xml").SetLevelString("loud").Build()
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, _, err = New().SetLevelString("loud").SetFormat("xml").Build()
	assert.ErrorIs(t, err, ErrUnknownLevel)

	_, _, err = New().SetRing(nil).Build()
	assert.ErrorIs(t, err, ErrNilRing)

	_, _, err = New().SetRotation("").Build()
	assert.ErrorIs(t, err, xrotate.ErrEmptyFilename)
}

func TestBuilder_SingleUse(t *testing.T) {
	b := New().SetOutput(&bytes.Buffer{})
	_, _, err := b.Build()
	require.NoError(t, err)
	_, _, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilderUsed)
}

func TestBuilder_DynamicLevel(t *testing.T) {
	logger, buf := buildJSON(t, New().SetLevel(LevelWarn))
	ctx := context.Background()
	child := logger.With(slog.String("child", "yes"))

	child.Info(ctx, "dropped")
	logger.SetLevel(LevelDebug)
	child.Debug(ctx, "kept")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, "yes", lines[0]["child"])
	assert.True(t, logger.Enabled(ctx, LevelDebug))
}

func TestBuilder_SetAttrsAndGroup(t *testing.T) {
	logger, buf := buildJSON(t, New().SetAttrs(slog.String("service", "demo")))
	logger.WithGroup("req").With(slog.Int("id", 7)).Info(context.Background(), "handled")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "demo", lines[0]["service"])
	assert.Equal(t, map[string]any{"id": float64(7)}, lines[0]["req"])
	assert.Same(t, logger, logger.With())
	assert.Same(t, logger, logger.WithGroup(""))
}

func TestBuilder_ReplaceAttr(t *testing.T) {
	logger, buf := buildJSON(t, New().SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == "token" {
			return slog.String("token", "***")
		}
		return a
	}))
	logger.Info(context.Background(), "login", slog.String("token", "secret"))
	assert.Equal(t, "***", decodeLines(t, buf)[0]["token"])
}

func TestBuilder_Ring(t *testing.T) {
	ring, err := xring.New[xring.Entry](4)
	require.NoError(t, err)
	logger, buf := buildJSON(t, New().SetRing(ring))
	ctx := context.Background()

	logger.Debug(ctx, "below level")
	logger.With(slog.String("k", "v")).Warn(ctx, "both")

	require.Equal(t, 1, ring.Len())
	e := ring.Snapshot()[0]
	assert.Equal(t, "both", e.Message)
	assert.Equal(t, "v", e.AttrMap()["k"])
	assert.Len(t, decodeLines(t, buf), 1)

	// 级别调整同时作用于 ring
	logger.SetLevel(LevelDebug)
	logger.Debug(ctx, "now visible")
	assert.Equal(t, 2, ring.Len())
}

func TestBuilder_Rotation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, cleanup, err := New().SetRotation(file, xrotate.WithCompress(false)).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "to file")
	require.NoError(t, cleanup())
	require.NoError(t, cleanup())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=\"to file\"")
}

func TestLogger_Stack(t *testing.T) {
	logger, buf := buildJSON(t, New())
	logger.Stack(context.Background(), "crashed", Err(errors.New("boom")))

	line := decodeLines(t, buf)[0]
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "boom", line[KeyError])
	assert.Contains(t, line[KeyStack], "TestLogger_Stack")
}

func TestLogger_AddSource(t *testing.T) {
	logger, buf := buildJSON(t, New().SetAddSource(true))
	logger.Info(context.Background(), "where")
	logger.Stack(context.Background(), "where stack")

	for _, line := range decodeLines(t, buf) {
		src, ok := line["source"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, src["file"], "xlog_test.go")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestLogger_OnError(t *testing.T) {
	var got []error
	var logger LoggerWithLevel
	logger, _, err := New().SetOutput(failingWriter{}).SetOnError(func(err error) {
		got = append(got, err)
		// 回调内再次失败不会递归
		logger.Error(context.Background(), "again")
	}).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "lost")
	require.Len(t, got, 1)
	assert.ErrorContains(t, got[0], "disk full")
	assert.Equal(t, uint64(2), logger.(*xlogger).ErrorCount())
}

func TestLogger_OnErrorPanicIsContained(t *testing.T) {
	logger, _, err := New().SetOutput(failingWriter{}).SetOnError(func(error) {
		panic("callback bug")
	}).Build()
	require.NoError(t, err)

	assert.NotPanics(t, func() { logger.Info(context.Background(), "x") })
	assert.Equal(t, uint64(2), logger.(*xlogger).ErrorCount())
}

func TestLogger_Slog(t *testing.T) {
	logger, buf := buildJSON(t, New())
	logger.Slog().Info("from slog", "k", 1)
	logger.SetLevel(LevelError)
	logger.Slog().Warn("filtered")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "from slog", lines[0]["msg"])
}

func TestLogger_NilContext(t *testing.T) {
	logger, buf := buildJSON(t, New())
	//nolint:staticcheck // 验证 nil ctx 的兜底行为
	logger.Info(nil, "nil ctx")
	//nolint:staticcheck // 验证 nil ctx 的兜底行为
	assert.True(t, logger.Enabled(nil, LevelInfo))
	assert.Len(t, decodeLines(t, buf), 1)
}

func TestAttrs(t *testing.T) {
	assert.Equal(t, slog.Attr{}, Err(nil))
	assert.Equal(t, slog.String(KeyDuration, "1.5s"), Duration(1500*1e6))
	assert.Equal(t, slog.String(KeyOperation, "load"), Operation("load"))
	assert.Equal(t, slog.Int64(KeyCount, 3), Count(3))
}
