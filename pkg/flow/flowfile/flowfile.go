// Package flowfile loads declarative flow definitions from YAML or JSON
// and builds runnable flows from them.
//
// A definition names its start node, a list of nodes (id, kind, retry
// policy, params), and a list of action-labeled edges. Node kinds are
// resolved against a registry of factories supplied by the application,
// so the file stays free of code while the graph stays inspectable.
package flowfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Definition is a complete declarative flow.
type Definition struct {
	// Start names the node the walk begins at.
	Start string `yaml:"start" json:"start"`
	// Nodes lists every node of the graph.
	Nodes []NodeDef `yaml:"nodes" json:"nodes"`
	// Edges lists the action-labeled transitions.
	Edges []EdgeDef `yaml:"edges" json:"edges"`
}

// NodeDef declares one node.
type NodeDef struct {
	// ID is the node's unique name within the graph.
	ID string `yaml:"id" json:"id"`
	// Kind selects the factory that builds the node.
	Kind string `yaml:"kind" json:"kind"`
	// MaxRetries is the Exec attempt limit. Zero means 1.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	// Wait is the delay between attempts as a Go duration string
	// (e.g. "500ms", "2s"). Empty means no wait.
	Wait string `yaml:"wait,omitempty" json:"wait,omitempty"`
	// Params are bound to the node and exposed via Context.Params.
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// EdgeDef declares one transition.
type EdgeDef struct {
	From string `yaml:"from" json:"from"`
	// Action is the label selecting this edge. Empty means the default
	// action.
	Action string `yaml:"action,omitempty" json:"action,omitempty"`
	To     string `yaml:"to" json:"to"`
}

// Retry returns the node's retry policy with defaults applied:
// MaxRetries of zero means a single attempt, an empty Wait means no
// delay. Fails if Wait is not a valid duration or the values are out of
// range.
func (d NodeDef) Retry() (int, time.Duration, error) {
	maxRetries := d.MaxRetries
	if maxRetries == 0 {
		maxRetries = 1
	}
	if maxRetries < 1 {
		return 0, 0, fmt.Errorf("node %s: max_retries must be at least 1, got %d", d.ID, d.MaxRetries)
	}

	var wait time.Duration
	if d.Wait != "" {
		var err error
		wait, err = time.ParseDuration(d.Wait)
		if err != nil {
			return 0, 0, fmt.Errorf("node %s: parse wait: %w", d.ID, err)
		}
		if wait < 0 {
			return 0, 0, fmt.Errorf("node %s: wait cannot be negative", d.ID)
		}
	}

	return maxRetries, wait, nil
}

// FromFile loads a definition from a file, auto-detecting the format by
// extension. Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read flow file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Definition{}, fmt.Errorf("unsupported flow file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Definition.
func FromYAML(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse yaml: %w", err)
	}
	return def, nil
}

// FromJSON parses JSON data into a Definition.
func FromJSON(data []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse json: %w", err)
	}
	return def, nil
}

// Validation errors returned by Builder.Build.
var (
	// ErrNoNodes indicates a definition with an empty node list.
	ErrNoNodes = errors.New("flow definition has no nodes")

	// ErrUnknownKind indicates a node kind with no registered factory.
	ErrUnknownKind = errors.New("unknown node kind")

	// ErrDuplicateNode indicates two nodes sharing an ID.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrInvalidNodeID indicates an empty or whitespace-containing ID.
	ErrInvalidNodeID = errors.New("invalid node ID")

	// ErrDuplicateEdge indicates two edges sharing a (from, action) pair.
	ErrDuplicateEdge = errors.New("duplicate edge")
)
