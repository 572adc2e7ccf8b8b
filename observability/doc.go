// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("orders")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mcfg := observability.DefaultMeterConfig("orders")
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//
// The executor drives a RunContext per pipeline call: one "stepflow.pipeline"
// span per run with a "stepflow.step" child span for every executed step.
//
//	rc := observability.NewRunContext("checkout", runID, tracer, metrics)
//	ctx, span := rc.StartRun(ctx)
//	ctx, step := rc.StartStep(ctx, 0, "charge_card")
//	step.End(ctx, "success", nil)
//	rc.EndRun(ctx, span, "success", nil)
package observability
