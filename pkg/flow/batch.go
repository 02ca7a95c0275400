package flow

import (
	"time"

	"github.com/bethneyQQ/repoAnalysis/pkg/flow/observability"
)

// BatchPrepFunc returns the ordered sequence of items a batch node will
// process. A nil slice means an empty batch.
type BatchPrepFunc func(ctx Context, shared *Shared) ([]any, error)

// BatchExecFunc performs the work for one item.
type BatchExecFunc func(ctx Context, item any) (any, error)

// BatchFallbackFunc recovers a single item after its retries are exhausted.
type BatchFallbackFunc func(ctx Context, item any, execErr error) (any, error)

// BatchPostFunc receives the original items and the per-item results, in
// input order, and decides the next action.
type BatchPostFunc func(ctx Context, shared *Shared, items, results []any) (Action, error)

// BatchNode runs its Exec once per prepared item, strictly in sequence.
// Each item carries the node's own retry and fallback policy; a later item
// does not start until the earlier item has fully settled. The first item
// whose retries and fallback both fail aborts the batch with an *ItemError.
type BatchNode struct {
	prep     BatchPrepFunc
	exec     BatchExecFunc
	fallback BatchFallbackFunc
	post     BatchPostFunc

	maxRetries int
	wait       time.Duration
}

// BatchOption configures a BatchNode or ParallelBatchNode.
type BatchOption func(*BatchNode)

// WithBatchPrep sets the item-producing Prep phase.
func WithBatchPrep(fn BatchPrepFunc) BatchOption {
	return func(b *BatchNode) {
		b.prep = fn
	}
}

// WithBatchExec sets the per-item Exec phase. Default: pass the item through.
func WithBatchExec(fn BatchExecFunc) BatchOption {
	return func(b *BatchNode) {
		b.exec = fn
	}
}

// WithBatchPost sets the Post phase. Default: return ActionDefault.
func WithBatchPost(fn BatchPostFunc) BatchOption {
	return func(b *BatchNode) {
		b.post = fn
	}
}

// WithBatchFallback sets the per-item fallback invoked after that item's
// retries are exhausted.
func WithBatchFallback(fn BatchFallbackFunc) BatchOption {
	return func(b *BatchNode) {
		b.fallback = fn
	}
}

// WithBatchRetry sets the per-item retry policy.
//
// Panics if maxRetries < 1 or wait < 0.
func WithBatchRetry(maxRetries int, wait time.Duration) BatchOption {
	if maxRetries < 1 {
		panic("flow: maxRetries must be at least 1")
	}
	if wait < 0 {
		panic("flow: wait cannot be negative")
	}
	return func(b *BatchNode) {
		b.maxRetries = maxRetries
		b.wait = wait
	}
}

// NewBatchNode creates a BatchNode.
func NewBatchNode(opts ...BatchOption) *BatchNode {
	b := &BatchNode{maxRetries: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes the batch lifecycle: Prep once, Exec per item in order,
// Post once with the ordered results.
func (b *BatchNode) Run(ctx Context, shared *Shared) (Action, error) {
	items, err := b.runPrep(ctx, shared)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "prep", Err: err}
	}

	ctx.Metrics().RecordBatch(ctx, ctx.NodeID(), len(items))

	results := make([]any, len(items))
	for i, item := range items {
		result, itemErr := b.runItem(ctx, item)
		if itemErr != nil {
			return "", &ItemError{NodeID: ctx.NodeID(), Index: i, Err: itemErr}
		}
		results[i] = result
	}

	return b.runPost(ctx, shared, items, results)
}

func (b *BatchNode) runPrep(ctx Context, shared *Shared) ([]any, error) {
	if b.prep == nil {
		return nil, nil
	}
	return b.prep(ctx, shared)
}

// runItem applies the node's retry and fallback policy to a single item.
// Shared by the sequential and parallel batch variants.
func (b *BatchNode) runItem(ctx Context, item any) (any, error) {
	if b.exec == nil {
		return item, nil
	}

	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		result, err := b.exec(attemptContext(ctx, attempt), item)
		if err == nil {
			return result, nil
		}
		lastErr = err

		observability.LogRetry(ctx.Logger(), ctx.NodeID(), attempt, b.maxRetries, err)
		ctx.Metrics().RecordRetry(ctx, ctx.NodeID(), attempt)

		if attempt < b.maxRetries && b.wait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.wait):
			}
		}
	}

	if b.fallback == nil {
		return nil, lastErr
	}

	observability.LogFallback(ctx.Logger(), ctx.NodeID(), lastErr)
	result, err := b.fallback(ctx, item, lastErr)
	ctx.Metrics().RecordFallback(ctx, ctx.NodeID(), err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *BatchNode) runPost(ctx Context, shared *Shared, items, results []any) (Action, error) {
	if b.post == nil {
		return ActionDefault, nil
	}
	action, err := b.post(ctx, shared, items, results)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "post", Err: err}
	}
	return action.orDefault(), nil
}
