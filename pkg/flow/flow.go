package flow

import (
	"context"
	"runtime/debug"
	"sort"
	"time"

	"github.com/bethneyQQ/repoAnalysis/pkg/flow/observability"
	"github.com/bethneyQQ/repoAnalysis/pkg/flow/runlog"
)

// Flow is an immutable, runnable graph of nodes connected by
// action-labeled edges. It is created by Graph.Compile.
//
// Flow is safe for concurrent Run calls as long as each call gets its own
// Shared store; the graph structure itself is never modified after
// compilation.
type Flow struct {
	nodes  map[string]Runner
	params map[string]Params
	edges  map[edgeKey]string
	start  string
}

// StartID returns the start node's ID.
func (f *Flow) StartID() string {
	return f.start
}

// NodeIDs returns all node identifiers in sorted order.
func (f *Flow) NodeIDs() []string {
	ids := make([]string, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasNode checks if a node exists in the flow.
func (f *Flow) HasNode(id string) bool {
	_, exists := f.nodes[id]
	return exists
}

// Successor returns the target of the edge (from, action) and whether the
// edge exists. The action is normalized, so the empty action queries the
// default edge.
func (f *Flow) Successor(from string, action Action) (string, bool) {
	to, ok := f.edges[edgeKey{from: from, action: action.orDefault()}]
	return to, ok
}

// Edges returns the full edge table, sorted by source node then action.
func (f *Flow) Edges() []Edge {
	edges := make([]Edge, 0, len(f.edges))
	for key, to := range f.edges {
		edges = append(edges, Edge{From: key.from, Action: key.action, To: to})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].Action < edges[j].Action
	})
	return edges
}

// Run walks the graph from the start node against the given shared store.
// Each step executes one full node lifecycle; the node's action selects
// the next edge, and the walk terminates the first time the action has no
// registered edge. The final action is returned along with any error.
//
// Errors from node lifecycles are forwarded to the caller with their
// cause intact; the flow itself never catches and continues.
func (f *Flow) Run(ctx Context, shared *Shared, opts ...RunOption) (Action, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if shared == nil {
		return "", ErrNilShared
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.runID == "" {
		cfg.runID = ctx.RunID()
	}
	runID := cfg.runID
	startTime := time.Now()
	observability.LogRunStart(ctx.Logger(), runID)

	tracingCtx, runSpan := cfg.spans.StartRunSpan(ctx, f.start, runID)

	action, steps, runErr := f.walk(ctx, tracingCtx, shared, &cfg)

	cfg.spans.EndSpanWithError(runSpan, runErr)

	duration := time.Since(startTime)
	ctx.Metrics().RecordRun(ctx, runErr == nil, duration)

	if runErr != nil {
		observability.LogRunError(ctx.Logger(), runID, runErr, float64(duration.Milliseconds()))
	} else {
		observability.LogRunComplete(ctx.Logger(), runID, float64(duration.Milliseconds()), steps)
	}

	return action, runErr
}

// walk drives the node-to-node state machine. Returns the final action,
// the number of completed steps, and any error.
func (f *Flow) walk(ctx Context, tracingCtx context.Context, shared *Shared, cfg *runConfig) (Action, int, error) {
	current := f.start
	steps := 0
	var lastAction Action

	for {
		if cfg.maxSteps > 0 && steps >= cfg.maxSteps {
			return lastAction, steps, &MaxStepsError{Max: cfg.maxSteps, NodeID: current}
		}

		select {
		case <-ctx.Done():
			return lastAction, steps, &CancelledError{NodeID: current, Cause: ctx.Err()}
		default:
		}

		nodeCtx := nodeContext(ctx, current, f.effectiveParams(current, cfg))
		observability.LogNodeStart(nodeCtx.Logger(), current)

		_, nodeSpan := cfg.spans.StartNodeSpan(tracingCtx, current)
		nodeStart := time.Now()

		action, err := runNode(nodeCtx, f.nodes[current], shared)

		nodeDuration := time.Since(nodeStart)
		ctx.Metrics().RecordNodeExecution(nodeCtx, current, nodeDuration, err)
		cfg.spans.EndSpanWithError(nodeSpan, err)

		steps++
		f.record(ctx, cfg, steps, current, action, nodeDuration, err)

		if err != nil {
			observability.LogNodeError(nodeCtx.Logger(), current, err)
			return lastAction, steps, err
		}
		observability.LogNodeComplete(nodeCtx.Logger(), current, float64(nodeDuration.Milliseconds()))

		lastAction = action.orDefault()

		next, ok := f.edges[edgeKey{from: current, action: lastAction}]
		if !ok {
			return lastAction, steps, nil
		}
		current = next
	}
}

// effectiveParams layers the run's iteration overlay (if any) over the
// node's bound Params.
func (f *Flow) effectiveParams(id string, cfg *runConfig) Params {
	bound := f.params[id]
	if !cfg.hasOverlay {
		return bound
	}
	return bound.Merge(cfg.overlay)
}

// record appends one step to the run log, if configured. Recording
// failures are logged and never abort the run.
func (f *Flow) record(ctx Context, cfg *runConfig, seq int, nodeID string, action Action, d time.Duration, stepErr error) {
	if cfg.runLog == nil {
		return
	}

	entry := runlog.Entry{
		RunID:     cfg.runID,
		Seq:       seq,
		NodeID:    nodeID,
		Action:    string(action.orDefault()),
		Duration:  d,
		Timestamp: time.Now().UTC(),
	}
	if stepErr != nil {
		entry.Action = ""
		entry.Err = stepErr.Error()
	}

	if err := cfg.runLog.Append(entry); err != nil {
		observability.LogRunLogError(ctx.Logger(), nodeID, err)
	}
}

// runNode executes one node lifecycle with panic recovery.
func runNode(ctx Context, r Runner, shared *Shared) (action Action, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			action = ""
			err = &PanicError{
				NodeID: ctx.NodeID(),
				Value:  rec,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	return r.Run(ctx, shared)
}
