package benchmarks

import (
	"path/filepath"
	"testing"

	"github.com/bethneyQQ/repoAnalysis/pkg/flow"
	"github.com/bethneyQQ/repoAnalysis/pkg/flow/runlog"
)

// BenchmarkRun_NoRunLog is the baseline for the recording benchmarks.
func BenchmarkRun_NoRunLog(b *testing.B) {
	f := mustCompile(buildLinearGraph(5))
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Run(ctx, flow.NewShared())
	}
}

// BenchmarkRun_MemoryRunLog measures in-memory step recording overhead.
func BenchmarkRun_MemoryRunLog(b *testing.B) {
	store := runlog.NewMemoryStore()
	defer store.Close()

	f := mustCompile(buildLinearGraph(5))
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Run(ctx, flow.NewShared(), flow.WithRunLog(store))
	}
}

// BenchmarkRun_SQLiteRunLog measures SQLite step recording overhead.
func BenchmarkRun_SQLiteRunLog(b *testing.B) {
	store, err := runlog.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	f := mustCompile(buildLinearGraph(5))
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Run(ctx, flow.NewShared(), flow.WithRunLog(store))
	}
}
