package flow

import (
	"github.com/bethneyQQ/repoAnalysis/pkg/flow/observability"
	"github.com/bethneyQQ/repoAnalysis/pkg/flow/runlog"
)

// runConfig holds per-run execution configuration.
type runConfig struct {
	// maxSteps caps node executions per walk; zero means unlimited.
	maxSteps int
	spans    observability.SpanManager
	runLog   runlog.Store
	// overlay is the iteration parameter set layered over node Params.
	overlay    Params
	hasOverlay bool
	// runID, when set by a batch flow iteration, replaces the context's
	// run ID for logging, tracing, and run log recording.
	runID string
}

// defaultRunConfig returns the default execution configuration:
// no step limit, no tracing, no run log.
func defaultRunConfig() runConfig {
	return runConfig{
		spans: observability.NoopSpanManager{},
	}
}

// RunOption configures one Flow.Run invocation.
type RunOption func(*runConfig)

// WithMaxSteps caps the number of node executions in one walk. The engine
// imposes no limit by default, since cyclic graphs are legitimate; use
// this as a guard when a graph may loop unexpectedly. Exceeding the cap
// returns a *MaxStepsError.
func WithMaxSteps(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithTracing enables OpenTelemetry tracing for the run: one run span
// with a child span per node execution. Configure the global tracer
// provider before use.
func WithTracing() RunOption {
	return func(c *runConfig) {
		c.spans = observability.NewSpanManager()
	}
}

// WithSpanManager sets a custom span manager for the run.
func WithSpanManager(sm observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if sm != nil {
			c.spans = sm
		}
	}
}

// WithRunLog records every step of the walk to the given store: node ID,
// resulting action, duration, and error. The trail is for post-hoc
// inspection only; recording failures are logged and never abort the run.
//
// Batch flow iterations record under derived run IDs of the form
// "<run_id>/<iteration>", so every iteration keeps its own trail.
func WithRunLog(store runlog.Store) RunOption {
	return func(c *runConfig) {
		c.runLog = store
	}
}

// withOverlay layers an iteration parameter set over every node's bound
// Params for this run. Used by the batch flow variants.
func withOverlay(p Params) RunOption {
	return func(c *runConfig) {
		c.overlay = p
		c.hasOverlay = true
	}
}

// withRunID gives one run a distinct identity. Used by the batch flow
// variants so concurrent or repeated iterations never collide on the
// caller's run ID in the run log.
func withRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}
