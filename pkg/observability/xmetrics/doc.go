// Package xmetrics 提供统一的可观测性接口（metrics + tracing）。
//
// 调用方只依赖 Observer/Span/Attr 三个抽象；默认实现基于 OpenTelemetry。
// xthread.Observed 用它把每次线程运行上报为一个跨度，xpool 用它观测每个任务。
//
//	obs, err := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
//	if err != nil {
//		return err
//	}
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xpool",
//		Operation: "task",
//	})
//	err = handle(ctx)
//	span.End(xmetrics.Result{Err: err})
//
// # 指标
//
//   - xconc.operation.total: 计数，单位 1
//   - xconc.operation.duration: 直方图，单位 s
//
// 两者都带 component / operation / status 三个属性。
package xmetrics
