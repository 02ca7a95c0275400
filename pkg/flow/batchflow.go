package flow

import (
	"fmt"
	"sync"
)

// BatchParamsFunc returns the ordered parameter sets a batch flow will
// iterate over, one full flow run per set.
type BatchParamsFunc func(ctx Context, shared *Shared) ([]Params, error)

// MergeFunc aggregates isolated iteration stores back into the parent
// store after all iterations have settled. iterations holds one store per
// parameter set, in input order.
type MergeFunc func(shared *Shared, iterations []*Shared) error

// BatchFlowPostFunc runs after every iteration has completed and decides
// the batch flow's own action.
type BatchFlowPostFunc func(ctx Context, shared *Shared, paramSets []Params) (Action, error)

// BatchFlow runs an entire flow once per parameter set, strictly in
// sequence. Each iteration's parameter set is layered over the node-bound
// Params for that iteration only.
//
// By default all iterations share the parent Shared store, so earlier
// iterations' mutations are visible to later ones. WithIsolatedIterations
// switches to per-iteration clones with an explicit merge at the end.
type BatchFlow struct {
	flow    *Flow
	prep    BatchParamsFunc
	post    BatchFlowPostFunc
	isolate bool
	merge   MergeFunc
}

// BatchFlowOption configures a BatchFlow.
type BatchFlowOption func(*BatchFlow)

// WithBatchFlowPost sets a post step run after all iterations complete.
// Default: return ActionDefault.
func WithBatchFlowPost(fn BatchFlowPostFunc) BatchFlowOption {
	return func(bf *BatchFlow) {
		bf.post = fn
	}
}

// WithIsolatedIterations runs every iteration on a Clone of the parent
// store instead of the store itself. After all iterations settle, merge
// (which may be nil to discard iteration state) aggregates the clones
// back into the parent.
func WithIsolatedIterations(merge MergeFunc) BatchFlowOption {
	return func(bf *BatchFlow) {
		bf.isolate = true
		bf.merge = merge
	}
}

// NewBatchFlow creates a BatchFlow over the given flow. prep produces the
// parameter sets; a nil slice means nothing to do.
func NewBatchFlow(f *Flow, prep BatchParamsFunc, opts ...BatchFlowOption) *BatchFlow {
	if f == nil {
		panic("flow: batch flow requires a flow")
	}
	bf := &BatchFlow{flow: f, prep: prep}
	for _, opt := range opts {
		opt(bf)
	}
	return bf
}

// Run executes the flow once per parameter set, each iteration under its
// own derived run ID. A failed iteration aborts the batch immediately;
// its error is forwarded unmodified.
func (bf *BatchFlow) Run(ctx Context, shared *Shared, opts ...RunOption) (Action, error) {
	sets, err := bf.runPrep(ctx, shared)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "prep", Err: err}
	}

	var iterations []*Shared
	for i, params := range sets {
		target := shared
		if bf.isolate {
			target = shared.Clone()
			iterations = append(iterations, target)
		}

		iterOpts := append(append([]RunOption{}, opts...),
			withOverlay(params), withRunID(iterationRunID(ctx, i)))
		if _, err := bf.flow.Run(ctx, target, iterOpts...); err != nil {
			return "", err
		}
	}

	if bf.isolate && bf.merge != nil {
		if err := bf.merge(shared, iterations); err != nil {
			return "", err
		}
	}

	return bf.runPost(ctx, shared, sets)
}

// iterationRunID derives the run ID one batch flow iteration records
// under. Each iteration is a full flow run of its own; reusing the
// caller's run ID would make iterations collide on (run_id, seq) in the
// run log and overwrite each other's trail.
func iterationRunID(ctx Context, iteration int) string {
	return fmt.Sprintf("%s/%d", ctx.RunID(), iteration)
}

func (bf *BatchFlow) runPrep(ctx Context, shared *Shared) ([]Params, error) {
	if bf.prep == nil {
		return nil, nil
	}
	return bf.prep(ctx, shared)
}

func (bf *BatchFlow) runPost(ctx Context, shared *Shared, sets []Params) (Action, error) {
	if bf.post == nil {
		return ActionDefault, nil
	}
	action, err := bf.post(ctx, shared, sets)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "post", Err: err}
	}
	return action.orDefault(), nil
}

// ParallelBatchFlow runs an entire flow once per parameter set, all
// iterations concurrently. Isolation is mandatory here: every iteration
// runs on a Clone of the parent store, never the store itself, because
// concurrently running iterations sharing one live store would race.
// Aggregation happens only through the merge callback, after all
// iterations have settled.
//
// Failure policy matches ParallelBatchNode: wait for every iteration,
// surface the first failure by index order as an *ItemError, never cancel
// running siblings. Fan-out is unbounded; chunk the parameter sets to
// bound it.
type ParallelBatchFlow struct {
	flow  *Flow
	prep  BatchParamsFunc
	post  BatchFlowPostFunc
	merge MergeFunc
}

// ParallelBatchFlowOption configures a ParallelBatchFlow.
type ParallelBatchFlowOption func(*ParallelBatchFlow)

// WithParallelMerge sets the aggregation callback run over the iteration
// stores after all iterations succeed. Without it, iteration state is
// discarded.
func WithParallelMerge(merge MergeFunc) ParallelBatchFlowOption {
	return func(pf *ParallelBatchFlow) {
		pf.merge = merge
	}
}

// WithParallelBatchFlowPost sets a post step run after the merge.
// Default: return ActionDefault.
func WithParallelBatchFlowPost(fn BatchFlowPostFunc) ParallelBatchFlowOption {
	return func(pf *ParallelBatchFlow) {
		pf.post = fn
	}
}

// NewParallelBatchFlow creates a ParallelBatchFlow over the given flow.
func NewParallelBatchFlow(f *Flow, prep BatchParamsFunc, opts ...ParallelBatchFlowOption) *ParallelBatchFlow {
	if f == nil {
		panic("flow: batch flow requires a flow")
	}
	pf := &ParallelBatchFlow{flow: f, prep: prep}
	for _, opt := range opts {
		opt(pf)
	}
	return pf
}

// Run executes the flow once per parameter set, concurrently, each
// iteration on its own clone of shared and under its own derived run ID.
func (pf *ParallelBatchFlow) Run(ctx Context, shared *Shared, opts ...RunOption) (Action, error) {
	sets, err := pf.runPrep(ctx, shared)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "prep", Err: err}
	}

	iterations := make([]*Shared, len(sets))
	errs := make([]error, len(sets))

	var wg sync.WaitGroup
	for i, params := range sets {
		iterations[i] = shared.Clone()
		iterOpts := append(append([]RunOption{}, opts...),
			withOverlay(params), withRunID(iterationRunID(ctx, i)))

		wg.Add(1)
		go func(slot int, target *Shared, ro []RunOption) {
			defer wg.Done()
			_, errs[slot] = pf.flow.Run(ctx, target, ro...)
		}(i, iterations[i], iterOpts)
	}
	wg.Wait()

	// All iterations have settled; surface the first failure by index.
	for i, iterErr := range errs {
		if iterErr != nil {
			return "", &ItemError{NodeID: pf.flow.StartID(), Index: i, Err: iterErr}
		}
	}

	if pf.merge != nil {
		if err := pf.merge(shared, iterations); err != nil {
			return "", err
		}
	}

	return pf.runPost(ctx, shared, sets)
}

func (pf *ParallelBatchFlow) runPrep(ctx Context, shared *Shared) ([]Params, error) {
	if pf.prep == nil {
		return nil, nil
	}
	return pf.prep(ctx, shared)
}

func (pf *ParallelBatchFlow) runPost(ctx Context, shared *Shared, sets []Params) (Action, error) {
	if pf.post == nil {
		return ActionDefault, nil
	}
	action, err := pf.post(ctx, shared, sets)
	if err != nil {
		return "", &NodeError{NodeID: ctx.NodeID(), Op: "post", Err: err}
	}
	return action.orDefault(), nil
}
