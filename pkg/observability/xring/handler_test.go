package xring

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, capacity int, opts *HandlerOptions) (*Ring[Entry], *Handler) {
	t.Helper()
	r, err := New[Entry](capacity)
	require.NoError(t, err)
	h, err := NewHandler(r, opts)
	require.NoError(t, err)
	return r, h
}

func TestNewHandler_NilRing(t *testing.T) {
	h, err := NewHandler(nil, nil)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrNilRing)
}

func TestHandler_CapturesRecords(t *testing.T) {
	r, h := newTestHandler(t, 8, nil)
	logger := slog.New(h)

	logger.Info("first", "n", 1)
	logger.Warn("second", slog.String("k", "v"))
	logger.Debug("dropped by level")

	entries := r.Snapshot()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message)
	assert.Equal(t, slog.LevelWarn, entries[0].Level)
	assert.Equal(t, map[string]any{"k": "v"}, entries[0].AttrMap())
	assert.Equal(t, "first", entries[1].Message)
	assert.Equal(t, map[string]any{"n": int64(1)}, entries[1].AttrMap())
	assert.False(t, entries[1].Time.IsZero())
	assert.Same(t, r, h.Ring())
}

func TestHandler_Level(t *testing.T) {
	var lv slog.LevelVar
	lv.Set(slog.LevelError)
	r, h := newTestHandler(t, 8, &HandlerOptions{Level: &lv})
	logger := slog.New(h)

	logger.Warn("ignored")
	assert.Equal(t, 0, r.Len())

	lv.Set(slog.LevelDebug)
	logger.Debug("kept")
	assert.Equal(t, 1, r.Len())
}

func TestHandler_WithAttrsAndGroups(t *testing.T) {
	r, h := newTestHandler(t, 8, nil)
	logger := slog.New(h).
		With("svc", "api").
		WithGroup("req").
		With("id", 7)

	logger.Info("handled",
		slog.Group("http", slog.Int("status", 200)),
		slog.Group("", slog.String("inline", "yes")),
		slog.Group("empty"),
	)

	e := r.Snapshot()[0]
	assert.Equal(t, map[string]any{
		"svc":             "api",
		"req.id":          int64(7),
		"req.http.status": int64(200),
		"req.inline":      "yes",
	}, e.AttrMap())
}

func TestHandler_DerivedHandlersShareRing(t *testing.T) {
	r, h := newTestHandler(t, 8, nil)
	base := slog.New(h)
	child := base.With("child", true)

	base.Info("a")
	child.Info("b")
	assert.Equal(t, 2, r.Len())

	// 派生不影响父级属性
	assert.Nil(t, r.Snapshot()[1].AttrMap())
}

type lazyValue struct{ calls *int }

func (l lazyValue) LogValue() slog.Value {
	*l.calls++
	return slog.StringValue("resolved")
}

func TestHandler_ResolvesLogValuer(t *testing.T) {
	r, h := newTestHandler(t, 2, nil)
	calls := 0
	slog.New(h).Info("lazy", "v", lazyValue{calls: &calls})

	assert.Equal(t, 1, calls)
	assert.Equal(t, "resolved", r.Snapshot()[0].AttrMap()["v"])
}

func TestEntry_AttrMapValueKinds(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e := Entry{Attrs: []slog.Attr{
		slog.Bool("b", true),
		slog.Float64("f", 1.5),
		slog.Uint64("u", 3),
		slog.Duration("d", 2*time.Second),
		slog.Time("t", ts),
		slog.Any("err", errors.New("boom")),
		slog.Any("level", slog.LevelWarn),
		slog.Any("raw", []int{1}),
	}}

	m := e.AttrMap()
	assert.Equal(t, true, m["b"])
	assert.Equal(t, 1.5, m["f"])
	assert.Equal(t, uint64(3), m["u"])
	assert.Equal(t, "2s", m["d"])
	got, ok := m["t"].(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(got))
	assert.Equal(t, "boom", m["err"])
	assert.Equal(t, "WARN", m["level"])
	assert.Equal(t, []int{1}, m["raw"])
}

func TestHandler_EvictsOldest(t *testing.T) {
	r, h := newTestHandler(t, 2, nil)
	logger := slog.New(h)
	for _, msg := range []string{"a", "b", "c"} {
		logger.InfoContext(context.Background(), msg)
	}
	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "c", snap[0].Message)
	assert.Equal(t, "b", snap[1].Message)
}
