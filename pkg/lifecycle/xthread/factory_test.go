package xthread

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func noop(context.Context) error { return nil }

func TestNew_NilWork(t *testing.T) {
	th, err := New().NewThread(context.Background(), nil)
	assert.Nil(t, th)
	assert.ErrorIs(t, err, ErrNilWork)
}

func TestNew_NilContext(t *testing.T) {
	//nolint:staticcheck // 验证 nil ctx 的兜底行为
	th, err := New(WithTracker(NewTracker())).NewThread(nil, noop)
	require.NoError(t, err)
	assert.NotNil(t, th.Context())
}

func TestNew_NilOptionSkipped(t *testing.T) {
	th, err := New(nil, WithTracker(nil), WithNamePrefix("")).NewThread(context.Background(), noop)
	require.NoError(t, err)
	assert.Equal(t, "thread-1", th.Name())
	assert.Same(t, DefaultTracker(), th.tracker)
}

func TestChain_FirstDecoratorIsOutermost(t *testing.T) {
	f := Chain(New(WithTracker(NewTracker())),
		func(f Factory) Factory { return Named(f, "outer") },
		nil,
		func(f Factory) Factory { return Named(f, "inner") },
	)
	th, err := f.NewThread(context.Background(), noop)
	require.NoError(t, err)
	assert.Equal(t, "outer-1", th.Name())
	assert.False(t, th.Started())
}

func TestChain_NoDecorators(t *testing.T) {
	base := New()
	assert.Equal(t, base, Chain(base))
}

func TestChain_PropagatesInnerError(t *testing.T) {
	f := Chain(New(), Daemon, func(f Factory) Factory { return Named(f, "w") })
	th, err := f.NewThread(context.Background(), nil)
	assert.Nil(t, th)
	assert.ErrorIs(t, err, ErrNilWork)
}

func TestDecorator_NilInner(t *testing.T) {
	for name, f := range map[string]Factory{
		"Daemon":        Daemon(nil),
		"LogFailures":   LogFailures(nil, nil),
		"StableContext": StableContext(nil, context.Background()),
		"Named":         Named(nil, "x"),
		"Observed":      Observed(nil, nil),
	} {
		th, err := f.NewThread(context.Background(), noop)
		assert.Nil(t, th, name)
		assert.ErrorIs(t, err, ErrNilFactory, name)
	}
}

func TestDecorator_WithMockFactory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	inner := NewMockFactory(ctrl)
	th := newThread(ctx, noop, NewTracker())
	inner.EXPECT().NewThread(ctx, gomock.Any()).Return(th, nil)

	got, err := Daemon(inner).NewThread(ctx, noop)
	require.NoError(t, err)
	assert.Same(t, th, got)
	assert.True(t, got.Daemon())
}

func TestDecorator_MockFactoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("quota exhausted")
	inner := NewMockFactory(ctrl)
	inner.EXPECT().NewThread(gomock.Any(), gomock.Any()).Return(nil, boom)

	f := Chain(inner, Daemon, func(f Factory) Factory { return LogFailures(f, nil) })
	th, err := f.NewThread(context.Background(), noop)
	assert.Nil(t, th)
	assert.ErrorIs(t, err, boom)
}

func TestDecorator_StartedThreadFromInner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	th := newThread(context.Background(), noop, nil)
	require.NoError(t, th.Start())
	require.NoError(t, th.Join(context.Background()))

	inner := NewMockFactory(ctrl)
	inner.EXPECT().NewThread(gomock.Any(), gomock.Any()).Return(th, nil)

	got, err := Daemon(inner).NewThread(context.Background(), noop)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrThreadStarted)
}

func TestFactoryFunc(t *testing.T) {
	called := false
	f := FactoryFunc(func(ctx context.Context, work Work) (*Thread, error) {
		called = true
		return New(WithTracker(NewTracker())).NewThread(ctx, work)
	})
	th, err := f.NewThread(context.Background(), noop)
	require.NoError(t, err)
	assert.NotNil(t, th)
	assert.True(t, called)
}
