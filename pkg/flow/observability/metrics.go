package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records flow engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a node lifecycle with its duration and
	// error status.
	RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordRun records a flow run completion.
	RecordRun(ctx context.Context, success bool, duration time.Duration)

	// RecordRetry records a failed Exec attempt.
	RecordRetry(ctx context.Context, nodeID string, attempt int)

	// RecordFallback records a fallback invocation and whether it recovered.
	RecordFallback(ctx context.Context, nodeID string, success bool)

	// RecordBatch records the size of a batch about to be processed.
	RecordBatch(ctx context.Context, nodeID string, items int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	nodeRetries    metric.Int64Counter
	nodeFallbacks  metric.Int64Counter
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	batchItems     metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("flow")

	nodeExecutions, err := meter.Int64Counter("flow.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("flow.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("flow.node.errors",
		metric.WithDescription("Number of node execution errors"),
	)
	if err != nil {
		return nil, err
	}

	nodeRetries, err := meter.Int64Counter("flow.node.retries",
		metric.WithDescription("Number of failed exec attempts"),
	)
	if err != nil {
		return nil, err
	}

	nodeFallbacks, err := meter.Int64Counter("flow.node.fallbacks",
		metric.WithDescription("Number of fallback invocations"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("flow.run.count",
		metric.WithDescription("Number of flow runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("flow.run.latency_ms",
		metric.WithDescription("Flow run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	batchItems, err := meter.Int64Histogram("flow.batch.items",
		metric.WithDescription("Number of items per batch"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions: nodeExecutions,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		nodeRetries:    nodeRetries,
		nodeFallbacks:  nodeFallbacks,
		runs:           runs,
		runLatency:     runLatency,
		batchItems:     batchItems,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNodeExecution records a node execution.
func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("node_id", nodeID),
	}

	m.nodeExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.nodeErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordRun records a flow run.
func (m *otelMetrics) RecordRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordRetry records a failed exec attempt.
func (m *otelMetrics) RecordRetry(ctx context.Context, nodeID string, attempt int) {
	m.nodeRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node_id", nodeID),
		attribute.Int("attempt", attempt),
	))
}

// RecordFallback records a fallback invocation.
func (m *otelMetrics) RecordFallback(ctx context.Context, nodeID string, success bool) {
	m.nodeFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node_id", nodeID),
		attribute.Bool("success", success),
	))
}

// RecordBatch records a batch size.
func (m *otelMetrics) RecordBatch(ctx context.Context, nodeID string, items int) {
	m.batchItems.Record(ctx, int64(items), metric.WithAttributes(
		attribute.String("node_id", nodeID),
	))
}
