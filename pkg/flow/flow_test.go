package flow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFlow_LinearWalk tests node-to-node traversal over default edges.
func TestFlow_LinearWalk(t *testing.T) {
	var executed []string

	f := mustCompile(NewGraph().
		Add("first", makeTrackingNode("first", &executed)).
		Add("second", makeTrackingNode("second", &executed)).
		Add("third", makeTrackingNode("third", &executed)).
		ConnectDefault("first", "second").
		ConnectDefault("second", "third").
		Start("first"))

	action, err := f.Run(testCtx(), NewShared())

	require.NoError(t, err)
	assert.Equal(t, ActionDefault, action)
	assert.Equal(t, []string{"first", "second", "third"}, executed)
}

// TestFlow_SingleNode tests that a start node with no outgoing edges
// terminates immediately after one step.
func TestFlow_SingleNode(t *testing.T) {
	f := mustCompile(NewGraph().
		Add("only", makeActionNode("finished")).
		Start("only"))

	action, err := f.Run(testCtx(), NewShared())

	require.NoError(t, err)
	assert.Equal(t, Action("finished"), action)
}

// TestFlow_ActionRouting tests that the returned action selects the edge.
func TestFlow_ActionRouting(t *testing.T) {
	var executed []string

	route := func(target Action) *Node {
		return NewNode(WithPost(func(ctx Context, shared *Shared, prep, exec any) (Action, error) {
			executed = append(executed, ctx.NodeID())
			return target, nil
		}))
	}

	f := mustCompile(NewGraph().
		Add("router", route("right")).
		Add("left", makeTrackingNode("left", &executed)).
		Add("right", makeTrackingNode("right", &executed)).
		Connect("router", "left", "left").
		Connect("router", "right", "right").
		Start("router"))

	_, err := f.Run(testCtx(), NewShared())

	require.NoError(t, err)
	assert.Equal(t, []string{"router", "right"}, executed)
}

// TestFlow_UnmatchedActionTerminates tests that an action with no edge ends
// the walk normally and is returned to the caller.
func TestFlow_UnmatchedActionTerminates(t *testing.T) {
	var executed []string

	f := mustCompile(NewGraph().
		Add("a", makeActionNode("no_such_edge")).
		Add("b", makeTrackingNode("b", &executed)).
		ConnectDefault("a", "b").
		Start("a"))

	action, err := f.Run(testCtx(), NewShared())

	require.NoError(t, err)
	assert.Equal(t, Action("no_such_edge"), action)
	assert.Empty(t, executed, "node b must not run")
}

// TestFlow_SharedVisibleAcrossNodes tests that later nodes observe earlier
// nodes' writes.
func TestFlow_SharedVisibleAcrossNodes(t *testing.T) {
	writer := NewNode(WithPost(func(ctx Context, shared *Shared, prep, exec any) (Action, error) {
		shared.Set("written", "by-writer")
		return ActionDefault, nil
	}))
	var read string
	reader := NewNode(WithPrep(func(ctx Context, shared *Shared) (any, error) {
		read, _ = shared.String("written")
		return nil, nil
	}))

	f := mustCompile(NewGraph().
		Add("writer", writer).
		Add("reader", reader).
		ConnectDefault("writer", "reader").
		Start("writer"))

	shared := NewShared()
	_, err := f.Run(testCtx(), shared)

	require.NoError(t, err)
	assert.Equal(t, "by-writer", read)
}

// TestFlow_CycleWithExit tests a self-loop that exits after three passes.
func TestFlow_CycleWithExit(t *testing.T) {
	loop := NewNode(WithPost(func(ctx Context, shared *Shared, prep, exec any) (Action, error) {
		count, _ := shared.Int("count")
		count++
		shared.Set("count", count)
		if count < 3 {
			return "again", nil
		}
		return "done", nil
	}))

	f := mustCompile(NewGraph().
		Add("loop", loop).
		Connect("loop", "again", "loop").
		Start("loop"))

	shared := NewShared()
	action, err := f.Run(testCtx(), shared)

	require.NoError(t, err)
	assert.Equal(t, Action("done"), action)
	count, _ := shared.Int("count")
	assert.Equal(t, 3, count)
}

// TestFlow_MaxSteps tests the opt-in guard against runaway cycles.
func TestFlow_MaxSteps(t *testing.T) {
	f := mustCompile(NewGraph().
		Add("forever", makeActionNode("again")).
		Connect("forever", "again", "forever").
		Start("forever"))

	_, err := f.Run(testCtx(), NewShared(), WithMaxSteps(5))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxSteps)
	var maxErr *MaxStepsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 5, maxErr.Max)
	assert.Equal(t, "forever", maxErr.NodeID)
}

// TestFlow_NodeErrorAbortsWalk tests that a failing node stops the walk and
// its error reaches the caller with cause intact.
func TestFlow_NodeErrorAbortsWalk(t *testing.T) {
	cause := errors.New("mid failure")
	var executed []string

	f := mustCompile(NewGraph().
		Add("ok", makeTrackingNode("ok", &executed)).
		Add("bad", makeFailingNode(cause)).
		Add("after", makeTrackingNode("after", &executed)).
		ConnectDefault("ok", "bad").
		ConnectDefault("bad", "after").
		Start("ok"))

	_, err := f.Run(testCtx(), NewShared())

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "bad", nodeErr.NodeID)
	assert.Equal(t, []string{"ok"}, executed)
}

// TestFlow_PanicRecovered tests that a panicking node becomes a
// *PanicError instead of crashing the walk.
func TestFlow_PanicRecovered(t *testing.T) {
	f := mustCompile(NewGraph().
		Add("bomb", makePanicNode("boom")).
		Start("bomb"))

	_, err := f.Run(testCtx(), NewShared())

	require.Error(t, err)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "bomb", panicErr.NodeID)
	assert.Equal(t, "boom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

// TestFlow_Cancellation tests that a cancelled context stops the walk
// before the next node starts.
func TestFlow_Cancellation(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	ctx := NewContext(base, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	canceller := NewNode(WithPost(func(c Context, shared *Shared, prep, exec any) (Action, error) {
		cancel()
		return ActionDefault, nil
	}))

	var executed []string
	f := mustCompile(NewGraph().
		Add("canceller", canceller).
		Add("after", makeTrackingNode("after", &executed)).
		ConnectDefault("canceller", "after").
		Start("canceller"))

	_, err := f.Run(ctx, NewShared())

	require.Error(t, err)
	var cancelErr *CancelledError
	require.ErrorAs(t, err, &cancelErr)
	assert.Equal(t, "after", cancelErr.NodeID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, executed)
}

// TestFlow_NilArguments tests the nil guards.
func TestFlow_NilArguments(t *testing.T) {
	f := mustCompile(NewGraph().Add("a", NewNode()).Start("a"))

	_, err := f.Run(nil, NewShared())
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = f.Run(testCtx(), nil)
	assert.ErrorIs(t, err, ErrNilShared)
}

// TestFlow_BoundParamsReachNode tests that Graph.Bind params surface via
// Context.Params inside that node only.
func TestFlow_BoundParamsReachNode(t *testing.T) {
	var withParams, withoutParams Params

	f := mustCompile(NewGraph().
		Add("configured", NewNode(WithExec(func(ctx Context, prep any) (any, error) {
			withParams = ctx.Params()
			return nil, nil
		}))).
		Add("plain", NewNode(WithExec(func(ctx Context, prep any) (any, error) {
			withoutParams = ctx.Params()
			return nil, nil
		}))).
		Bind("configured", NewParams(map[string]any{"model": "small", "limit": 10})).
		ConnectDefault("configured", "plain").
		Start("configured"))

	_, err := f.Run(testCtx(), NewShared())

	require.NoError(t, err)
	assert.Equal(t, "small", withParams.String("model", ""))
	assert.Equal(t, 10, withParams.Int("limit", 0))
	assert.Equal(t, 0, withoutParams.Len())
}

// TestFlow_NodeIDInContext tests that each node sees its own ID.
func TestFlow_NodeIDInContext(t *testing.T) {
	var ids []string
	record := func() *Node {
		return NewNode(WithExec(func(ctx Context, prep any) (any, error) {
			ids = append(ids, ctx.NodeID())
			return nil, nil
		}))
	}

	f := mustCompile(NewGraph().
		Add("alpha", record()).
		Add("beta", record()).
		ConnectDefault("alpha", "beta").
		Start("alpha"))

	_, err := f.Run(testCtx(), NewShared())

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)
}

// TestFlow_ReusableAcrossRuns tests that one compiled flow serves multiple
// independent runs.
func TestFlow_ReusableAcrossRuns(t *testing.T) {
	f := mustCompile(NewGraph().
		Add("inc", NewNode(WithPost(func(ctx Context, shared *Shared, prep, exec any) (Action, error) {
			n, _ := shared.Int("n")
			shared.Set("n", n+1)
			return ActionDefault, nil
		}))).
		Start("inc"))

	for i := 0; i < 3; i++ {
		shared := NewShared()
		_, err := f.Run(testCtx(), shared)
		require.NoError(t, err)
		n, _ := shared.Int("n")
		assert.Equal(t, 1, n, "each run starts fresh")
	}
}

// TestFlow_BatchNodeInGraph tests a batch node participating in a walk.
func TestFlow_BatchNodeInGraph(t *testing.T) {
	batch := NewBatchNode(
		WithBatchPrep(func(ctx Context, shared *Shared) ([]any, error) {
			items, err := shared.StringSlice("items")
			if err != nil {
				return nil, err
			}
			out := make([]any, len(items))
			for i, it := range items {
				out[i] = it
			}
			return out, nil
		}),
		WithBatchExec(func(ctx Context, item any) (any, error) {
			return len(item.(string)), nil
		}),
		WithBatchPost(func(ctx Context, shared *Shared, items, results []any) (Action, error) {
			total := 0
			for _, r := range results {
				total += r.(int)
			}
			shared.Set("total_len", total)
			return ActionDefault, nil
		}),
	)

	f := mustCompile(NewGraph().
		Add("measure", batch).
		Add("report", makeSetNode("reported", true)).
		ConnectDefault("measure", "report").
		Start("measure"))

	shared := NewSharedFrom(map[string]any{"items": []string{"ab", "cde"}})
	_, err := f.Run(testCtx(), shared)

	require.NoError(t, err)
	total, _ := shared.Int("total_len")
	assert.Equal(t, 5, total)
	assert.True(t, shared.Has("reported"))
}
