package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/breaker"
	"github.com/fyrsmithlabs/queryd/internal/logging"
)

func TestMetrics_RecordInvocation(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	m := &Metrics{
		meter: mp.Meter(instrumentationName),
		log:   logging.NewNop(),
	}
	m.init()

	ctx := context.Background()

	// One success, one failure
	m.RecordInvocation(ctx, "assistant_query", 100*time.Millisecond, nil)
	m.RecordInvocation(ctx, "assistant_query", 50*time.Millisecond, breaker.ErrOverloaded)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected scope metrics, got none")
	}

	foundInvocations := false
	foundDuration := false
	foundErrors := false

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "queryd.mcp.tool.invocations_total":
				foundInvocations = true
				if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
					total := int64(0)
					for _, dp := range sum.DataPoints {
						total += dp.Value
					}
					if total != 2 {
						t.Errorf("expected 2 invocations, got %d", total)
					}
				}
			case "queryd.mcp.tool.duration_seconds":
				foundDuration = true
			case "queryd.mcp.tool.errors_total":
				foundErrors = true
				if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
					total := int64(0)
					for _, dp := range sum.DataPoints {
						total += dp.Value
					}
					if total != 1 {
						t.Errorf("expected 1 error, got %d", total)
					}
				}
			}
		}
	}

	if !foundInvocations {
		t.Error("invocations counter not found")
	}
	if !foundDuration {
		t.Error("duration histogram not found")
	}
	if !foundErrors {
		t.Error("errors counter not found")
	}
}

func TestMetrics_ActiveRequests(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	m := &Metrics{
		meter: mp.Meter(instrumentationName),
		log:   logging.NewNop(),
	}
	m.init()

	ctx := context.Background()

	m.IncrementActive(ctx, "assistant_query")
	m.IncrementActive(ctx, "assistant_query")
	m.DecrementActive(ctx, "assistant_query")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name == "queryd.mcp.tool.active_requests" {
				if sum, ok := metric.Data.(metricdata.Sum[int64]); ok {
					total := int64(0)
					for _, dp := range sum.DataPoints {
						total += dp.Value
					}
					if total != 1 {
						t.Errorf("expected 1 active request, got %d", total)
					}
				}
				return
			}
		}
	}
	t.Error("active_requests metric not found")
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"overloaded", breaker.ErrOverloaded, "overload"},
		{"wrapped overloaded", fmt.Errorf("ask: %w", breaker.ErrOverloaded), "overload"},
		{"circuit open", breaker.ErrOpen, "circuit_open"},
		{"unknown kind", fmt.Errorf("%w: %q", assistant.ErrUnknownKind, "astrology"), "unknown_kind"},
		{"empty query", assistant.ErrEmptyQuery, "validation"},
		{"missing argument", errors.New("content is required"), "validation"},
		{"bad session id", errors.New(`invalid session_id "x y"`), "validation"},
		{"deadline", errors.New("context deadline exceeded"), "timeout"},
		{"generic error", errors.New("something went wrong"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := categorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("categorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}
