package flowfile

import (
	"fmt"
	"strings"

	"github.com/bethneyQQ/repoAnalysis/pkg/flow"
	"github.com/bethneyQQ/repoAnalysis/pkg/flow/registry"
)

// Factory builds a runner from a node definition. The definition carries
// the node's retry policy; use NodeDef.Retry to apply it:
//
//	builder.RegisterKind("greet", func(def flowfile.NodeDef) (flow.Runner, error) {
//	    maxRetries, wait, err := def.Retry()
//	    if err != nil {
//	        return nil, err
//	    }
//	    return flow.NewNode(
//	        flow.WithRetry(maxRetries, wait),
//	        flow.WithExec(greet),
//	    ), nil
//	})
type Factory func(def NodeDef) (flow.Runner, error)

// Builder turns definitions into runnable flows by resolving node kinds
// against registered factories.
//
// Safe for concurrent use: kinds may be registered and flows built from
// multiple goroutines.
type Builder struct {
	kinds *registry.Registry[string, Factory]
}

// NewBuilder creates a Builder with no registered kinds.
func NewBuilder() *Builder {
	return &Builder{kinds: registry.New[string, Factory]()}
}

// RegisterKind associates a factory with a kind name. Registering the
// same kind again replaces the factory. Returns the builder for chaining.
func (b *Builder) RegisterKind(kind string, f Factory) *Builder {
	b.kinds.Register(kind, f)
	return b
}

// Kinds returns the registered kind names. The order is not guaranteed.
func (b *Builder) Kinds() []string {
	return b.kinds.Keys()
}

// Build validates the definition, instantiates every node through its
// kind's factory, and compiles the resulting graph.
//
// Unlike direct graph construction, which panics on misuse, Build
// returns errors: definitions come from files, not code.
func (b *Builder) Build(def Definition) (*flow.Flow, error) {
	if len(def.Nodes) == 0 {
		return nil, ErrNoNodes
	}

	seen := make(map[string]bool, len(def.Nodes))
	for _, nd := range def.Nodes {
		if nd.ID == "" || strings.ContainsAny(nd.ID, " \t\n\r") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNodeID, nd.ID)
		}
		if seen[nd.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, nd.ID)
		}
		seen[nd.ID] = true
		if !b.kinds.Has(nd.Kind) {
			return nil, fmt.Errorf("%w: %s (node %s)", ErrUnknownKind, nd.Kind, nd.ID)
		}
	}

	g := flow.NewGraph()
	for _, nd := range def.Nodes {
		factory, _ := b.kinds.Get(nd.Kind)
		runner, err := factory(nd)
		if err != nil {
			return nil, fmt.Errorf("build node %s (kind %s): %w", nd.ID, nd.Kind, err)
		}
		if runner == nil {
			return nil, fmt.Errorf("build node %s (kind %s): factory returned nil", nd.ID, nd.Kind)
		}
		g.Add(nd.ID, runner)
		if len(nd.Params) > 0 {
			g.Bind(nd.ID, flow.NewParams(nd.Params))
		}
	}

	type edgeKey struct {
		from, action string
	}
	edges := make(map[edgeKey]bool, len(def.Edges))
	for _, ed := range def.Edges {
		action := ed.Action
		if action == "" {
			action = string(flow.ActionDefault)
		}
		key := edgeKey{from: ed.From, action: action}
		if edges[key] {
			return nil, fmt.Errorf("%w: from %s on action %q", ErrDuplicateEdge, ed.From, action)
		}
		edges[key] = true
		g.Connect(ed.From, flow.Action(ed.Action), ed.To)
	}
	g.Start(def.Start)

	return g.Compile()
}
