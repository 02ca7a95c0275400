package flow

import (
	"sync"
)

// ParallelBatchNode runs its Exec for every prepared item concurrently:
// all items are launched before any is awaited, one goroutine per item.
// Results are collected into pre-sized slots preserving input order
// regardless of completion order.
//
// Failure policy: the batch waits for every launched item to settle. If
// one or more items exhaust retries and fallback, the first failure by
// index order is surfaced as an *ItemError; already-running siblings are
// not cancelled.
//
// Fan-out is unbounded: there is no concurrency cap and no backpressure.
// Callers with very large batches must chunk the prepared items
// themselves.
//
// Item Exec and fallback functions must not touch the Shared store; only
// Prep and Post, which run in the caller's goroutine, have access to it.
type ParallelBatchNode struct {
	batch *BatchNode
}

// NewParallelBatchNode creates a ParallelBatchNode. It accepts the same
// options as NewBatchNode; the retry and fallback policy applies per item.
func NewParallelBatchNode(opts ...BatchOption) *ParallelBatchNode {
	return &ParallelBatchNode{batch: NewBatchNode(opts...)}
}

// Run executes the batch lifecycle with concurrent item execution.
func (p *ParallelBatchNode) Run(ctx Context, shared *Shared) (Action, error) {
	items, err := p.batch.runPrep(ctx, shared)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "prep", Err: err}
	}

	ctx.Metrics().RecordBatch(ctx, ctx.NodeID(), len(items))

	results := make([]any, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(slot int, it any) {
			defer wg.Done()
			results[slot], errs[slot] = p.batch.runItem(ctx, it)
		}(i, item)
	}
	wg.Wait()

	// All items have settled; surface the first failure by index order.
	for i, itemErr := range errs {
		if itemErr != nil {
			return "", &ItemError{NodeID: ctx.NodeID(), Index: i, Err: itemErr}
		}
	}

	return p.batch.runPost(ctx, shared, items, results)
}
