package benchmarks

import (
	"errors"
	"testing"

	"github.com/bethneyQQ/repoAnalysis/pkg/flow"
)

var errFail = errors.New("bench failure")

// BenchmarkRun_Linear_5 runs a 5-node linear flow.
func BenchmarkRun_Linear_5(b *testing.B) {
	f := mustCompile(buildLinearGraph(5))
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Run(ctx, flow.NewShared())
	}
}

// BenchmarkRun_Linear_50 runs a 50-node linear flow.
func BenchmarkRun_Linear_50(b *testing.B) {
	f := mustCompile(buildLinearGraph(50))
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Run(ctx, flow.NewShared())
	}
}

// BenchmarkRun_Loop runs a self-loop exiting after 10 passes.
func BenchmarkRun_Loop(b *testing.B) {
	loop := flow.NewNode(flow.WithPost(func(ctx flow.Context, shared *flow.Shared, prep, exec any) (flow.Action, error) {
		n, _ := shared.Int("n")
		n++
		shared.Set("n", n)
		if n < 10 {
			return "again", nil
		}
		return "done", nil
	}))
	f := mustCompile(flow.NewGraph().
		Add("loop", loop).
		Connect("loop", "again", "loop").
		Start("loop"))
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Run(ctx, flow.NewShared())
	}
}

// BenchmarkRun_SharedAccess measures store reads and writes inside nodes.
func BenchmarkRun_SharedAccess(b *testing.B) {
	writer := flow.NewNode(flow.WithPost(func(ctx flow.Context, shared *flow.Shared, prep, exec any) (flow.Action, error) {
		shared.Set("value", 42)
		return flow.ActionDefault, nil
	}))
	reader := flow.NewNode(flow.WithPrep(func(ctx flow.Context, shared *flow.Shared) (any, error) {
		return shared.Int("value")
	}))
	f := mustCompile(flow.NewGraph().
		Add("writer", writer).
		Add("reader", reader).
		ConnectDefault("writer", "reader").
		Start("writer"))
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Run(ctx, flow.NewShared())
	}
}

// BenchmarkBatchNode_Sequential measures per-item overhead, 100 items.
func BenchmarkBatchNode_Sequential(b *testing.B) {
	items := make([]any, 100)
	for i := range items {
		items[i] = i
	}
	node := flow.NewBatchNode(
		flow.WithBatchPrep(func(ctx flow.Context, shared *flow.Shared) ([]any, error) {
			return items, nil
		}),
		flow.WithBatchExec(func(ctx flow.Context, item any) (any, error) {
			return item.(int) * 2, nil
		}),
	)
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = node.Run(ctx, flow.NewShared())
	}
}

// BenchmarkParallelBatchNode_100 measures goroutine fan-out, 100 items.
func BenchmarkParallelBatchNode_100(b *testing.B) {
	items := make([]any, 100)
	for i := range items {
		items[i] = i
	}
	node := flow.NewParallelBatchNode(
		flow.WithBatchPrep(func(ctx flow.Context, shared *flow.Shared) ([]any, error) {
			return items, nil
		}),
		flow.WithBatchExec(func(ctx flow.Context, item any) (any, error) {
			return item.(int) * 2, nil
		}),
	)
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = node.Run(ctx, flow.NewShared())
	}
}

// BenchmarkNode_RetryPath measures the retry loop, 3 attempts then
// fallback.
func BenchmarkNode_RetryPath(b *testing.B) {
	node := flow.NewNode(
		flow.WithRetry(3, 0),
		flow.WithExec(func(ctx flow.Context, prep any) (any, error) {
			return nil, errFail
		}),
		flow.WithFallback(func(ctx flow.Context, prep any, execErr error) (any, error) {
			return nil, nil
		}),
	)
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = node.Run(ctx, flow.NewShared())
	}
}
