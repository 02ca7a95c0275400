package benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/bethneyQQ/repoAnalysis/pkg/flow"
)

// benchCtx creates a context with logging disabled so the benchmarks
// measure engine overhead, not the handler.
func benchCtx() flow.Context {
	return flow.NewContext(context.Background(),
		flow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// buildLinearGraph builds an n-node chain of no-op nodes.
func buildLinearGraph(n int) *flow.Graph {
	g := flow.NewGraph()
	for i := 0; i < n; i++ {
		g.Add(fmt.Sprintf("node%d", i), flow.NewNode())
		if i > 0 {
			g.ConnectDefault(fmt.Sprintf("node%d", i-1), fmt.Sprintf("node%d", i))
		}
	}
	return g.Start("node0")
}

func mustCompile(g *flow.Graph) *flow.Flow {
	f, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return f
}

// BenchmarkNewGraph measures graph builder overhead.
func BenchmarkNewGraph(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = flow.NewGraph().
			Add("a", flow.NewNode()).
			Add("b", flow.NewNode()).
			ConnectDefault("a", "b").
			Start("a")
	}
}

// BenchmarkCompile_10 measures compilation of a 10-node graph.
func BenchmarkCompile_10(b *testing.B) {
	g := buildLinearGraph(10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.Compile()
	}
}

// BenchmarkCompile_100 measures compilation of a 100-node graph.
func BenchmarkCompile_100(b *testing.B) {
	g := buildLinearGraph(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.Compile()
	}
}
