package flow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bethneyQQ/repoAnalysis/pkg/flow/observability"
)

// Context provides execution context to node lifecycle functions. It
// extends context.Context with engine services and per-step metadata.
//
// Context is immutable after creation. The executor derives a new context
// for each node with the node's ID, bound Params, and an enriched logger,
// and again for each retry attempt.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node
	// context. Never returns nil; defaults to slog.Default().
	Logger() *slog.Logger

	// Metrics returns the metrics recorder. Never returns nil; defaults
	// to a no-op recorder.
	Metrics() observability.MetricsRecorder

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the node currently executing. Empty outside a flow
	// walk or for nodes run standalone.
	NodeID() string

	// Attempt returns the Exec retry attempt number (1 = first attempt).
	Attempt() int

	// Params returns the parameters bound to the current node, layered
	// under the iteration parameter set during batch flow execution.
	Params() Params
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	runID   string
	nodeID  string
	attempt int
	params  Params
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// Metrics returns the metrics recorder.
func (c *executionContext) Metrics() observability.MetricsRecorder {
	return c.metrics
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// Attempt returns the retry attempt number.
func (c *executionContext) Attempt() int {
	return c.attempt
}

// Params returns the effective node parameters.
func (c *executionContext) Params() Params {
	return c.params
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context. The executor enriches it
// with run_id and node_id per node.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder for the context.
// Use observability.NewMetricsRecorder() for OpenTelemetry metrics.
func WithMetrics(rec observability.MetricsRecorder) ContextOption {
	return func(c *executionContext) {
		c.metrics = rec
	}
}

// WithRunID sets the run identifier. A UUID is auto-generated if not set.
func WithRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := flow.NewContext(context.Background(),
//	    flow.WithLogger(myLogger),
//	    flow.WithRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		runID:   uuid.New().String(),
		attempt: 1,
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// nodeContext derives a context scoped to one node: node ID and effective
// Params set, logger enriched with run_id and node_id. Works for any
// Context implementation, not just the one built by NewContext.
func nodeContext(ctx Context, nodeID string, params Params) *executionContext {
	return &executionContext{
		Context: ctx,
		logger:  ctx.Logger().With("run_id", ctx.RunID(), "node_id", nodeID),
		metrics: ctx.Metrics(),
		runID:   ctx.RunID(),
		nodeID:  nodeID,
		attempt: 1,
		params:  params,
	}
}

// attemptContext derives a context for one Exec retry attempt.
func attemptContext(ctx Context, attempt int) *executionContext {
	return &executionContext{
		Context: ctx,
		logger:  ctx.Logger(),
		metrics: ctx.Metrics(),
		runID:   ctx.RunID(),
		nodeID:  ctx.NodeID(),
		attempt: attempt,
		params:  ctx.Params(),
	}
}
