// Package flow is a small workflow execution engine. It composes discrete
// units of work (nodes) into directed graphs (flows) and executes them with
// a uniform three-phase lifecycle: Prep, Exec with bounded retry, and Post,
// which decides the action selecting the next edge.
//
// A flow run walks the graph from the start node, one full node lifecycle
// per step, until the returned action has no registered edge. Cycles are
// permitted and no step limit is imposed by default; WithMaxSteps is an
// opt-in guard for runs that may loop unexpectedly.
//
// Batch variants run a node's Exec once per prepared item (BatchNode,
// sequential) or all at once (ParallelBatchNode, one goroutine per item).
// BatchFlow and ParallelBatchFlow do the same at the flow level, once per
// parameter set.
//
// Concurrency model: parallel batch execution launches one goroutine per
// item or parameter set with no concurrency cap and no backpressure. Callers
// with very large batches must bound fan-out themselves, e.g. by chunking
// the prepared items. Parallel flow iterations never share a live Shared
// store; each iteration runs on a Clone and aggregation happens through an
// explicit merge callback after all iterations settle.
package flow
