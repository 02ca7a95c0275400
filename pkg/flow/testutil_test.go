package flow

import (
	"context"
	"io"
	"log/slog"
)

// Helper builders used across tests

// testCtx creates a context with a silent logger.
func testCtx() Context {
	return NewContext(context.Background(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// makeSetNode creates a node whose Post stores value under key.
func makeSetNode(key string, value any) *Node {
	return NewNode(WithPost(func(ctx Context, shared *Shared, prep, exec any) (Action, error) {
		shared.Set(key, value)
		return ActionDefault, nil
	}))
}

// makeTrackingNode creates a node that appends name to tracker on Exec.
func makeTrackingNode(name string, tracker *[]string) *Node {
	return NewNode(WithExec(func(ctx Context, prep any) (any, error) {
		*tracker = append(*tracker, name)
		return nil, nil
	}))
}

// makeActionNode creates a node whose Post returns the given action.
func makeActionNode(action Action) *Node {
	return NewNode(WithPost(func(ctx Context, shared *Shared, prep, exec any) (Action, error) {
		return action, nil
	}))
}

// makeFailingNode creates a node whose Exec always returns err.
func makeFailingNode(err error) *Node {
	return NewNode(WithExec(func(ctx Context, prep any) (any, error) {
		return nil, err
	}))
}

// makePanicNode creates a node whose Exec panics with value.
func makePanicNode(value any) *Node {
	return NewNode(WithExec(func(ctx Context, prep any) (any, error) {
		panic(value)
	}))
}

// mustCompile compiles the graph, panicking on error. For tests where the
// graph is known valid.
func mustCompile(g *Graph) *Flow {
	f, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return f
}
