package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omeyang/xconc/pkg/config/xconf"
	"github.com/omeyang/xconc/pkg/lifecycle/xrun"
	"github.com/omeyang/xconc/pkg/lifecycle/xthread"
	"github.com/omeyang/xconc/pkg/observability/xlog"
	"github.com/omeyang/xconc/pkg/observability/xmetrics"
	"github.com/omeyang/xconc/pkg/observability/xring"
	"github.com/omeyang/xconc/pkg/observability/xrotate"
	"github.com/omeyang/xconc/pkg/util/xcow"
	"github.com/omeyang/xconc/pkg/util/xevent"
	"github.com/omeyang/xconc/pkg/util/xpool"
)

var errInjected = errors.New("injected job failure")

// Job 由定时器产生、交给 worker pool 处理的任务。
type Job struct {
	ID      uint64
	Created time.Time
}

type jobListener struct {
	fn func(job Job, err error)
}

// Host 把配置、日志、线程工厂、worker pool 与调试 HTTP 接口组装成一个进程。
type Host struct {
	cfg  Config
	file xconf.Config

	ring     *xring.Ring[xring.Entry]
	logger   xlog.LoggerWithLevel
	closeLog func() error

	tp       *sdktrace.TracerProvider
	mp       *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
	observer xmetrics.Observer

	tracker *xthread.Tracker
	workers xthread.Factory // 非守护：关闭时等待
	daemons xthread.Factory // 守护：不阻塞关闭

	listeners xcow.List[*jobListener]
	watching  xevent.Event // 配置监听器已注册
	ready     xevent.Event
	stopping  atomic.Bool
	pool      *xpool.Pool[Job]

	ln     net.Listener
	server *http.Server

	seq       atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// NewHost 组装宿主进程并绑定监听地址。ctx 作为所有线程的稳定根 ctx。
func NewHost(ctx context.Context, lc *loadedConfig, logOutput io.Writer) (*Host, error) {
	h := &Host{cfg: lc.Config, file: lc.file, tracker: xthread.NewTracker()}
	fail := func(err error) (*Host, error) {
		_ = h.Close() //nolint:errcheck // 已有构造错误
		return nil, err
	}

	if err := h.initLogging(logOutput); err != nil {
		return fail(err)
	}
	h.initTelemetry()
	h.initThreads(ctx)

	pool, err := xpool.New(h.cfg.Jobs.Workers, h.cfg.Jobs.Queue, h.process,
		xpool.WithName("jobs"),
		xpool.WithLogger(h.logger.Slog()),
		xpool.WithThreadFactory(h.workers),
		xpool.WithObserver(h.observer),
	)
	if err != nil {
		return fail(fmt.Errorf("create pool: %w", err))
	}
	h.pool = pool

	ln, err := net.Listen("tcp", h.cfg.HTTP.Addr)
	if err != nil {
		return fail(fmt.Errorf("listen %s: %w", h.cfg.HTTP.Addr, err))
	}
	h.ln = ln
	h.server = &http.Server{
		Handler:           h.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(h.logger.Slog().Handler(), slog.LevelWarn),
	}
	return h, nil
}

func (h *Host) initLogging(out io.Writer) error {
	ring, err := xring.New[xring.Entry](h.cfg.Log.RingCapacity)
	if err != nil {
		return err
	}
	h.ring = ring

	b := xlog.New().
		SetOutput(out).
		SetLevelString(h.cfg.Log.Level).
		SetFormat(h.cfg.Log.Format).
		SetEnrich(h.cfg.Log.Enrich).
		SetRing(ring).
		SetAttrs(slog.String("service", h.cfg.Service.Name))
	if h.cfg.Log.File != "" {
		b.SetRotation(h.cfg.Log.File, xrotate.WithMaxSize(50), xrotate.WithMaxBackups(3))
	}
	h.logger, h.closeLog, err = b.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	return nil
}

// initTelemetry 启用 metrics 时创建进程内的 SDK provider；span 只用于给日志附加 trace_id。
func (h *Host) initTelemetry() {
	if !h.cfg.Metrics.Enabled {
		return
	}
	h.reader = sdkmetric.NewManualReader()
	h.mp = sdkmetric.NewMeterProvider(sdkmetric.WithReader(h.reader))
	h.tp = sdktrace.NewTracerProvider()
	obs, err := xmetrics.NewOTelObserver(
		xmetrics.WithInstrumentationName("github.com/omeyang/xconc/cmd/xconcdemo"),
		xmetrics.WithTracerProvider(h.tp),
		xmetrics.WithMeterProvider(h.mp),
	)
	if err != nil {
		h.logger.Warn(context.Background(), "metrics disabled", xlog.Err(err))
		return
	}
	h.observer = obs
}

func (h *Host) initThreads(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	root := context.WithoutCancel(ctx)
	logger := h.logger.Slog()
	base := xthread.New(xthread.WithTracker(h.tracker), xthread.WithNamePrefix(h.cfg.Service.Name))

	h.workers = xthread.Chain(base,
		func(f xthread.Factory) xthread.Factory { return xthread.Named(f, "job-worker") },
		func(f xthread.Factory) xthread.Factory { return xthread.StableContext(f, root) },
		func(f xthread.Factory) xthread.Factory { return xthread.LogFailures(f, logger) },
		func(f xthread.Factory) xthread.Factory { return xthread.Observed(f, h.observer) },
	)
	h.daemons = xthread.Chain(base,
		func(f xthread.Factory) xthread.Factory { return xthread.Named(f, "watcher") },
		func(f xthread.Factory) xthread.Factory { return xthread.StableContext(f, root) },
		func(f xthread.Factory) xthread.Factory { return xthread.LogFailures(f, logger) },
		xthread.Daemon,
	)
}

// OnJob 注册任务完成回调，返回退订函数。回调在 worker 线程上同步执行。
func (h *Host) OnJob(fn func(job Job, err error)) (remove func()) {
	l := &jobListener{fn: fn}
	h.listeners.Add(l)
	var once sync.Once
	return func() {
		once.Do(func() { h.listeners.Remove(l) })
	}
}

// Addr 返回实际监听地址。
func (h *Host) Addr() net.Addr {
	return h.ln.Addr()
}

// Ready 返回所有服务启动后关闭的 channel。
func (h *Host) Ready() <-chan struct{} {
	return h.ready.Done()
}

// Logger 返回宿主的日志记录器。
func (h *Host) Logger() xlog.LoggerWithLevel {
	return h.logger
}

// Run 运行全部服务直到 ctx 取消或某个服务失败，返回前等待 worker 线程退出。
func (h *Host) Run(ctx context.Context, opts ...xrun.Option) error {
	logger := h.logger.Slog()
	services := xthread.Chain(
		xthread.New(xthread.WithNamePrefix("svc"), xthread.WithTracker(xthread.NewTracker())),
		func(f xthread.Factory) xthread.Factory { return xthread.LogFailures(f, logger) },
	)
	opts = append([]xrun.Option{
		xrun.WithName(h.cfg.Service.Name),
		xrun.WithLogger(logger),
		xrun.WithThreadFactory(services),
		xrun.WithThreadTracker(h.tracker, h.cfg.Threads.WaitTimeout),
	}, opts...)

	// 监听地址在 NewHost 中已绑定；其余需要异步完成的启动步骤在此登记
	var steps []*xevent.Event
	return xrun.RunGroup(ctx, opts, func(g *xrun.Group) {
		g.GoNamed("http", xrun.HTTPServer(listenerServer{Server: h.server, ln: h.ln}, h.cfg.HTTP.ShutdownTimeout))
		g.GoNamed("producer", h.producer())
		g.GoNamed("pool", h.drainPool)
		if h.file != nil && h.cfg.Watch.Enabled {
			steps = append(steps, &h.watching)
			g.GoNamed("config-watch", h.watchConfig)
		}
		g.GoNamed("readiness", func(ctx context.Context) error {
			return h.readiness(ctx, steps)
		})
	})
}

// readiness 等待全部启动步骤完成后标记就绪，ctx 取消时撤销。
func (h *Host) readiness(ctx context.Context, steps []*xevent.Event) error {
	for _, step := range steps {
		if err := step.Wait(ctx); err != nil {
			// 启动未完成即被取消：不标记就绪
			h.stopping.Store(true)
			return nil
		}
	}
	h.ready.Signal()
	h.logger.Info(ctx, "host ready", slog.String("addr", h.Addr().String()))
	<-ctx.Done()
	h.stopping.Store(true)
	return nil
}

func (h *Host) producer() func(ctx context.Context) error {
	if h.cfg.Jobs.Schedule != "" {
		return xrun.Schedule(h.cfg.Jobs.Schedule, h.produce)
	}
	return xrun.Ticker(h.cfg.Jobs.Interval, false, h.produce)
}

// produce 由 Ticker 或 Schedule 周期调用：生成任务并非阻塞地提交。
func (h *Host) produce(ctx context.Context) error {
	job := Job{ID: h.seq.Add(1), Created: time.Now()}
	switch err := h.pool.Submit(job); {
	case err == nil:
		return nil
	case errors.Is(err, xpool.ErrQueueFull):
		h.dropped.Add(1)
		h.logger.Warn(ctx, "job dropped", slog.Uint64("job", job.ID), xlog.Err(err))
		return nil
	case errors.Is(err, xpool.ErrPoolStopped):
		// 关闭过程中 pool 可能先于 Ticker 停止
		return nil
	default:
		return err
	}
}

func (h *Host) process(ctx context.Context, job Job) error {
	var err error
	if n := h.cfg.Jobs.FailEvery; n > 0 && job.ID%n == 0 {
		err = fmt.Errorf("job %d: %w", job.ID, errInjected)
		h.failed.Add(1)
	} else {
		h.processed.Add(1)
		h.logger.Debug(ctx, "job processed",
			slog.Uint64("job", job.ID),
			xlog.Duration(time.Since(job.Created)),
		)
	}
	for l := range h.listeners.All() {
		l.fn(job, err)
	}
	return err
}

// drainPool 在关闭时停止接收任务并等待队列排空。
func (h *Host) drainPool(ctx context.Context) error {
	<-ctx.Done()
	sctx := context.WithoutCancel(ctx)
	if h.cfg.HTTP.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(sctx, h.cfg.HTTP.ShutdownTimeout)
		defer cancel()
	}
	if err := h.pool.Shutdown(sctx); err != nil {
		h.logger.Warn(ctx, "pool did not drain", xlog.Err(err))
	}
	return nil
}

// watchConfig 热重载日志级别，直到 ctx 取消。
func (h *Host) watchConfig(ctx context.Context) error {
	w, err := xconf.Watch(h.file,
		xconf.WithDebounce(h.cfg.Watch.Debounce),
		xconf.WithThreadFactory(h.daemons),
		xconf.WithWatchLogger(h.logger.Slog()),
	)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	unsubscribe := w.Subscribe(func(c xconf.Config, err error) {
		if err != nil {
			return
		}
		h.applyLevel(ctx, c.Client().String("log.level"))
	})
	defer unsubscribe()

	if err := w.Start(); err != nil {
		return err
	}
	h.watching.Signal()
	<-ctx.Done()
	if err := w.Stop(); err != nil {
		h.logger.Warn(ctx, "stop config watcher", xlog.Err(err))
	}
	<-w.Done()
	return nil
}

func (h *Host) applyLevel(ctx context.Context, s string) {
	if s == "" {
		s = h.cfg.Log.Level
	}
	level, err := xlog.ParseLevel(s)
	if err != nil {
		h.logger.Warn(ctx, "ignoring log level from config", xlog.Err(err))
		return
	}
	if level == h.logger.GetLevel() {
		return
	}
	h.logger.SetLevel(level)
	h.logger.Info(ctx, "log level changed", slog.String("level", level.String()))
}

func (h *Host) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !h.ready.IsSignaled() || h.stopping.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/debug/logs", xring.HTTPHandler(h.ring))
	mux.HandleFunc("GET /debug/jobs", h.serveJobs)
	if h.reader != nil {
		mux.HandleFunc("GET /debug/metrics", h.serveMetrics)
	}
	return mux
}

type jobStats struct {
	Submitted uint64 `json:"submitted"`
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
	Pending   int    `json:"pending"`
	Listeners int    `json:"listeners"`
	Threads   int    `json:"threads"`
}

func (h *Host) stats() jobStats {
	return jobStats{
		Submitted: h.seq.Load(),
		Processed: h.processed.Load(),
		Failed:    h.failed.Load(),
		Dropped:   h.dropped.Load(),
		Pending:   h.pool.Pending(),
		Listeners: h.listeners.Len(),
		Threads:   h.tracker.Active(),
	}
}

func (h *Host) serveJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, h.logger, h.stats())
}

// serveMetrics 输出各指标数据点的汇总：计数器为总和，直方图为样本数。
func (h *Host) serveMetrics(w http.ResponseWriter, r *http.Request) {
	var rm metricdata.ResourceMetrics
	if err := h.reader.Collect(r.Context(), &rm); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make(map[string]float64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += float64(dp.Value)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out[m.Name+".count"] += float64(dp.Count)
				}
			}
		}
	}
	writeJSON(r.Context(), w, h.logger, out)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, logger xlog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn(ctx, "write response", xlog.Err(err))
	}
}

// Close 释放日志文件与 telemetry provider。可重复调用。
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		var errs []error
		if h.ln != nil {
			// Serve 已关闭 listener 时这里返回的错误可以忽略
			_ = h.ln.Close() //nolint:errcheck // 见上
		}
		if h.pool != nil {
			errs = append(errs, h.pool.Close())
		}
		if h.tp != nil {
			errs = append(errs, h.tp.Shutdown(context.Background()))
		}
		if h.mp != nil {
			errs = append(errs, h.mp.Shutdown(context.Background()))
		}
		if h.closeLog != nil {
			errs = append(errs, h.closeLog())
		}
		h.closeErr = errors.Join(errs...)
	})
	return h.closeErr
}

// listenerServer 在预先绑定的 listener 上服务，满足 xrun.Server。
type listenerServer struct {
	*http.Server
	ln net.Listener
}

func (s listenerServer) ListenAndServe() error {
	return s.Serve(s.ln)
}
