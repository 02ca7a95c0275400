package flow

import (
	"time"

	"github.com/bethneyQQ/repoAnalysis/pkg/flow/observability"
)

// Runner is the unit the graph walks. Run executes one full lifecycle
// against the shared store and returns the action selecting the next edge.
//
// Node, BatchNode, and ParallelBatchNode implement Runner; applications
// may provide their own implementations for custom lifecycles.
type Runner interface {
	Run(ctx Context, shared *Shared) (Action, error)
}

// PrepFunc gathers input for Exec from the shared store.
type PrepFunc func(ctx Context, shared *Shared) (any, error)

// ExecFunc performs the node's main work on the Prep result. It is the
// only phase the retry policy re-invokes; each retry receives the same
// Prep result.
type ExecFunc func(ctx Context, prep any) (any, error)

// FallbackFunc is invoked once after every Exec attempt has failed.
// Returning a value recovers the node; returning an error is fatal to
// the run.
type FallbackFunc func(ctx Context, prep any, execErr error) (any, error)

// PostFunc processes results, may mutate the shared store, and returns
// the action selecting the next edge. An empty action means ActionDefault.
type PostFunc func(ctx Context, shared *Shared, prep, exec any) (Action, error)

// Node is the atomic unit of work: a Prep/Exec/Post lifecycle with a
// bounded retry policy and an optional fallback.
//
// Exec is attempted up to MaxRetries times, waiting Wait between attempts.
// When every attempt fails, the fallback (if set) runs exactly once with
// the last error; without a fallback the last error is fatal. Prep and
// Post failures are never retried and always abort the run.
type Node struct {
	prep     PrepFunc
	exec     ExecFunc
	fallback FallbackFunc
	post     PostFunc

	maxRetries int
	wait       time.Duration
}

// NodeOption configures a Node.
type NodeOption func(*Node)

// WithPrep sets the Prep phase. Default: no-op returning nil.
func WithPrep(fn PrepFunc) NodeOption {
	return func(n *Node) {
		n.prep = fn
	}
}

// WithExec sets the Exec phase. Default: pass the Prep result through.
func WithExec(fn ExecFunc) NodeOption {
	return func(n *Node) {
		n.exec = fn
	}
}

// WithPost sets the Post phase. Default: return ActionDefault.
func WithPost(fn PostFunc) NodeOption {
	return func(n *Node) {
		n.post = fn
	}
}

// WithFallback sets the fallback invoked after retry exhaustion.
// Default: none, the last Exec error is fatal.
func WithFallback(fn FallbackFunc) NodeOption {
	return func(n *Node) {
		n.fallback = fn
	}
}

// WithRetry sets the retry policy: up to maxRetries Exec attempts with
// wait between attempts.
//
// Panics if maxRetries < 1 or wait < 0.
func WithRetry(maxRetries int, wait time.Duration) NodeOption {
	if maxRetries < 1 {
		panic("flow: maxRetries must be at least 1")
	}
	if wait < 0 {
		panic("flow: wait cannot be negative")
	}
	return func(n *Node) {
		n.maxRetries = maxRetries
		n.wait = wait
	}
}

// NewNode creates a Node. Without options the node is a no-op with a
// single attempt and no wait.
func NewNode(opts ...NodeOption) *Node {
	n := &Node{maxRetries: 1}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// MaxRetries returns the configured attempt limit.
func (n *Node) MaxRetries() int {
	return n.maxRetries
}

// Wait returns the configured delay between attempts.
func (n *Node) Wait() time.Duration {
	return n.wait
}

// Run executes the full lifecycle: Prep once, Exec with retry and
// fallback, Post once. The returned action is normalized so an empty
// Post result becomes ActionDefault.
func (n *Node) Run(ctx Context, shared *Shared) (Action, error) {
	prep, err := n.runPrep(ctx, shared)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "prep", Err: err}
	}

	exec, err := n.runExec(ctx, prep)
	if err != nil {
		return "", err
	}

	return n.runPost(ctx, shared, prep, exec)
}

func (n *Node) runPrep(ctx Context, shared *Shared) (any, error) {
	if n.prep == nil {
		return nil, nil
	}
	return n.prep(ctx, shared)
}

// runExec drives the retry loop. Retries re-invoke only Exec, reusing the
// Prep result; the wait between attempts respects context cancellation.
func (n *Node) runExec(ctx Context, prep any) (any, error) {
	if n.exec == nil {
		return prep, nil
	}

	var lastErr error
	for attempt := 1; attempt <= n.maxRetries; attempt++ {
		result, err := n.exec(attemptContext(ctx, attempt), prep)
		if err == nil {
			return result, nil
		}
		lastErr = err

		observability.LogRetry(ctx.Logger(), ctx.NodeID(), attempt, n.maxRetries, err)
		ctx.Metrics().RecordRetry(ctx, ctx.NodeID(), attempt)

		if attempt < n.maxRetries && n.wait > 0 {
			select {
			case <-ctx.Done():
				return nil, &NodeError{NodeID: ctx.NodeID(), Op: "exec", Attempts: attempt, Err: ctx.Err()}
			case <-time.After(n.wait):
			}
		}
	}

	if n.fallback == nil {
		return nil, &NodeError{NodeID: ctx.NodeID(), Op: "exec", Attempts: n.maxRetries, Err: lastErr}
	}

	observability.LogFallback(ctx.Logger(), ctx.NodeID(), lastErr)
	result, err := n.fallback(ctx, prep, lastErr)
	ctx.Metrics().RecordFallback(ctx, ctx.NodeID(), err == nil)
	if err != nil {
		return nil, &NodeError{NodeID: ctx.NodeID(), Op: "fallback", Attempts: n.maxRetries, Err: err}
	}
	return result, nil
}

func (n *Node) runPost(ctx Context, shared *Shared, prep, exec any) (Action, error) {
	if n.post == nil {
		return ActionDefault, nil
	}
	action, err := n.post(ctx, shared, prep, exec)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "post", Err: err}
	}
	return action.orDefault(), nil
}
