package flow

import (
	"fmt"
	"strings"
	"sync"
)

// edgeKey addresses one outgoing edge: the source node and the action
// label selecting it.
type edgeKey struct {
	from   string
	action Action
}

// Edge is one entry of a flow's edge table, exposed for introspection.
type Edge struct {
	From   string
	Action Action
	To     string
}

// Graph is a mutable builder for flows. Nodes live in a name-addressed
// registry and edges in an explicit (node, action) table, so graphs with
// cycles carry no object cross-references and stay inspectable.
//
// Use NewGraph, chain Add, Bind, Connect, and Start calls, then call
// Compile to obtain an immutable, runnable *Flow.
//
// Graph is not meant for concurrent building; construct it from a single
// goroutine.
//
// Example:
//
//	g := flow.NewGraph().
//	    Add("fetch", fetchNode).
//	    Add("scan", scanNode).
//	    Connect("fetch", "files_retrieved", "scan").
//	    Start("fetch")
//
//	f, err := g.Compile()
type Graph struct {
	mu     sync.Mutex
	nodes  map[string]Runner
	params map[string]Params
	edges  map[edgeKey]string
	start  string
}

// NewGraph creates an empty graph builder.
func NewGraph() *Graph {
	return &Graph{
		nodes:  make(map[string]Runner),
		params: make(map[string]Params),
		edges:  make(map[edgeKey]string),
	}
}

// Add registers a named node. Returns the graph for chaining.
//
// Panics if:
//   - id is empty or contains whitespace
//   - r is nil
//   - id is already registered
func (g *Graph) Add(id string, r Runner) *Graph {
	if id == "" {
		panic("flow: node ID cannot be empty")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("flow: node ID cannot contain whitespace")
	}
	if r == nil {
		panic("flow: node cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("flow: duplicate node ID: %s", id))
	}

	g.nodes[id] = r
	return g
}

// Bind attaches an immutable parameter set to a previously added node.
// The node sees it through Context.Params during its lifecycle calls.
// Returns the graph for chaining.
//
// Panics if id is not a registered node.
func (g *Graph) Bind(id string, p Params) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		panic(fmt.Sprintf("flow: cannot bind params to unknown node: %s", id))
	}

	g.params[id] = p
	return g
}

// Connect registers the edge (from, action) -> to. An empty action is
// normalized to ActionDefault. Returns the graph for chaining.
//
// Node existence is validated at Compile time, so edges may be added in
// any order. Panics on a duplicate (from, action) pair: each action
// selects exactly one successor.
func (g *Graph) Connect(from string, action Action, to string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := edgeKey{from: from, action: action.orDefault()}
	if _, exists := g.edges[key]; exists {
		panic(fmt.Sprintf("flow: duplicate edge from %s on action %q", from, key.action))
	}

	g.edges[key] = to
	return g
}

// ConnectDefault registers the default-action edge from -> to.
func (g *Graph) ConnectDefault(from, to string) *Graph {
	return g.Connect(from, ActionDefault, to)
}

// Start designates the start node. Must be called before Compile; the
// node's existence is validated there. Returns the graph for chaining.
func (g *Graph) Start(id string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.start = id
	return g
}

// Compile validates the graph and returns an immutable Flow.
//
// Validation errors:
//   - ErrNoStart: Start was never called
//   - ErrStartNotFound: the start node is not registered
//   - ErrEdgeNodeNotFound: an edge endpoint is not registered
func (g *Graph) Compile() (*Flow, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.start == "" {
		return nil, ErrNoStart
	}
	if _, exists := g.nodes[g.start]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrStartNotFound, g.start)
	}

	for key, to := range g.edges {
		if _, exists := g.nodes[key.from]; !exists {
			return nil, fmt.Errorf("%w: edge source %s", ErrEdgeNodeNotFound, key.from)
		}
		if _, exists := g.nodes[to]; !exists {
			return nil, fmt.Errorf("%w: edge target %s (from %s on %q)", ErrEdgeNodeNotFound, to, key.from, key.action)
		}
	}

	nodes := make(map[string]Runner, len(g.nodes))
	for id, r := range g.nodes {
		nodes[id] = r
	}
	params := make(map[string]Params, len(g.params))
	for id, p := range g.params {
		params[id] = p
	}
	edges := make(map[edgeKey]string, len(g.edges))
	for k, v := range g.edges {
		edges[k] = v
	}

	return &Flow{
		nodes:  nodes,
		params: params,
		edges:  edges,
		start:  g.start,
	}, nil
}
