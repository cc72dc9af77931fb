package xmetrics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	obs    Observer
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	obs, err := NewOTelObserver(append([]Option{WithTracerProvider(tp), WithMeterProvider(mp)}, opts...)...)
	require.NoError(t, err)
	return &harness{obs: obs, spans: spans, reader: reader}
}

// counts 返回按 status 聚合的 operation.total。
func (h *harness) counts(t *testing.T) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != metricOperationTotal {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				out[status.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestStart_NilObserver(t *testing.T) {
	//nolint:staticcheck // 验证 nil ctx 的兜底行为
	ctx, span := Start(nil, nil, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.Equal(t, NoopSpan{}, span)
	span.End(Result{})
}

type nilObserver struct{}

func (nilObserver) Start(context.Context, SpanOptions) (context.Context, Span) { return nil, nil }

func TestStart_NilReturnsFallback(t *testing.T) {
	ctx, span := Start(context.Background(), nilObserver{}, SpanOptions{})
	assert.Equal(t, context.Background(), ctx)
	assert.Equal(t, NoopSpan{}, span)
}

func TestNoopObserver(t *testing.T) {
	//nolint:staticcheck // 验证 nil ctx 的兜底行为
	ctx, span := NoopObserver{}.Start(nil, SpanOptions{})
	assert.NotNil(t, ctx)
	span.End(Result{Err: errors.New("ignored")})
}

func TestOTelObserver_SuccessAndFailure(t *testing.T) {
	h := newHarness(t)

	ctx, span := Start(context.Background(), h.obs, SpanOptions{
		Component: "xpool",
		Operation: "task",
		Kind:      KindConsumer,
		Attrs:     []Attr{String("pool", "jobs"), Int("worker", 2)},
	})
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	span.End(Result{Attrs: []Attr{Duration("wait", time.Millisecond)}})

	_, span = Start(context.Background(), h.obs, SpanOptions{Component: "xpool", Operation: "task"})
	span.End(Result{Err: errors.New("bad")})

	ended := h.spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "task", ended[0].Name())
	assert.Equal(t, trace.SpanKindConsumer, ended[0].SpanKind())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("pool", "jobs"))
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("wait", int64(time.Millisecond)))
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "bad", ended[1].Status().Description)

	assert.Equal(t, map[string]int64{"ok": 1, "error": 1}, h.counts(t))
}

func TestOTelObserver_EndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	_, span := h.obs.Start(context.Background(), SpanOptions{})
	span.End(Result{})
	span.End(Result{Err: errors.New("late")})

	require.Len(t, h.spans.Ended(), 1)
	assert.Equal(t, unknownOperation, h.spans.Ended()[0].Name())
	assert.Equal(t, map[string]int64{"ok": 1}, h.counts(t))
}

func TestOTelObserver_ExplicitStatus(t *testing.T) {
	h := newHarness(t)
	_, span := h.obs.Start(context.Background(), SpanOptions{Operation: "op"})
	span.End(Result{Status: StatusError})
	_, span = h.obs.Start(context.Background(), SpanOptions{Operation: "op"})
	span.End(Result{Status: StatusOK, Err: context.Canceled})

	ended := h.spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "operation failed", ended[0].Status().Description)
	assert.Equal(t, codes.Ok, ended[1].Status().Code)
	assert.Len(t, ended[1].Events(), 1)
}

func TestOTelObserver_CanceledContextStillRecords(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	_, span := h.obs.Start(ctx, SpanOptions{Operation: "op"})
	cancel()
	span.End(Result{Err: context.Canceled})
	assert.Equal(t, map[string]int64{"error": 1}, h.counts(t))
}

func TestNewOTelObserver_Options(t *testing.T) {
	_, err := NewOTelObserver(nil)
	assert.ErrorIs(t, err, ErrNilOption)

	for _, bounds := range [][]float64{{1, 1}, {2, 1}, {math.NaN()}, {math.Inf(1)}} {
		_, err = NewOTelObserver(WithDurationBuckets(bounds...))
		assert.ErrorIs(t, err, ErrInvalidBuckets, "%v", bounds)
	}

	h := newHarness(t, WithInstrumentationName("custom"), WithInstrumentationName(""), WithDurationBuckets(0.001, 0.01, 0.1))
	_, span := h.obs.Start(context.Background(), SpanOptions{})
	span.End(Result{})
	assert.Equal(t, "custom", h.spans.Ended()[0].InstrumentationScope().Name)

	obs, err := NewOTelObserver(WithTracerProvider(nil), WithMeterProvider(nil))
	require.NoError(t, err)
	assert.NotNil(t, obs)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Internal", KindInternal.String())
	assert.Equal(t, "Server", KindServer.String())
	assert.Equal(t, "Client", KindClient.String())
	assert.Equal(t, "Producer", KindProducer.String())
	assert.Equal(t, "Consumer", KindConsumer.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestToKeyValue(t *testing.T) {
	cases := []struct {
		attr Attr
		want attribute.KeyValue
	}{
		{String("s", "v"), attribute.String("s", "v")},
		{Bool("b", true), attribute.Bool("b", true)},
		{Int("i", 3), attribute.Int("i", 3)},
		{Int64("i64", 4), attribute.Int64("i64", 4)},
		{Any("f", 1.5), attribute.Float64("f", 1.5)},
		{Duration("d", time.Second), attribute.Int64("d", int64(time.Second))},
		{Any("x", []int{1}), attribute.String("x", "[1]")},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, toKeyValue(c.attr), c.attr.Key)
	}
	assert.Empty(t, attrsToOTel([]Attr{{Key: ""}, {Key: "nil"}}))
}
