// Package telemetry provides OpenTelemetry instrumentation for queryd.
//
// # Overview
//
// This package implements distributed tracing and metrics collection using
// the OpenTelemetry Go SDK. Telemetry data is exported to an OTEL Collector
// over OTLP (gRPC or http/protobuf).
//
// # Usage
//
// Create a telemetry instance:
//
//	cfg := telemetry.NewDefaultConfig()
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
// Use tracer and meter:
//
//	tracer := tel.Tracer("queryd.assistant")
//	ctx, span := tracer.Start(ctx, "assistant.Ask")
//	defer span.End()
//
//	meter := tel.Meter("queryd.assistant")
//	counter, _ := meter.Int64Counter("queries")
//	counter.Add(ctx, 1)
//
// # Error Handling
//
// Telemetry failures never crash the daemon. If an exporter cannot be
// initialized, the instance marks itself degraded and hands out no-op
// providers; query serving continues.
//
// # Testing
//
// Use TestTelemetry for tests:
//
//	tt := telemetry.NewTestTelemetry()
//	tracer := tt.Tracer("test")
//	_, span := tracer.Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
