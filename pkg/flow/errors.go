package flow

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building and compilation.
var (
	// ErrNoStart indicates Start() was not called before Compile().
	ErrNoStart = errors.New("start node not set")

	// ErrStartNotFound indicates the start node references a non-existent node.
	ErrStartNotFound = errors.New("start node not found")

	// ErrEdgeNodeNotFound indicates an edge references a non-existent node.
	ErrEdgeNodeNotFound = errors.New("edge references unknown node")
)

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilShared indicates Run() was called with a nil shared store.
	ErrNilShared = errors.New("shared store cannot be nil")

	// ErrMaxSteps indicates the walk exceeded the WithMaxSteps limit.
	ErrMaxSteps = errors.New("exceeded maximum steps")
)

// Sentinel errors for Shared typed accessors.
var (
	// ErrKeyNotFound indicates the requested key is absent from the store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrWrongType indicates the stored value has a different type than requested.
	ErrWrongType = errors.New("value has wrong type")
)

// KeyError reports a failed Shared lookup.
type KeyError struct {
	// Key is the requested key.
	Key string
	// Err is the underlying error, usually ErrKeyNotFound.
	Err error
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	return fmt.Sprintf("shared key %q: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *KeyError) Unwrap() error {
	return e.Err
}

// TypeError reports a Shared typed accessor finding a value of the wrong type.
type TypeError struct {
	// Key is the requested key.
	Key string
	// Want is the requested Go type.
	Want string
	// Got is the dynamic type of the stored value.
	Got string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("shared key %q: want %s, got %s", e.Key, e.Want, e.Got)
}

// Unwrap returns ErrWrongType for errors.Is support.
func (e *TypeError) Unwrap() error {
	return ErrWrongType
}

// NodeError wraps a lifecycle failure with node context. The original
// failure is reachable through Unwrap, so callers can inspect cause and
// origin with errors.Is/As; the engine never swallows or rewrites it.
type NodeError struct {
	// NodeID is the identifier of the node that failed. Empty for nodes
	// run standalone outside a flow.
	NodeID string
	// Op is the lifecycle phase that failed: "prep", "exec", "fallback",
	// or "post".
	Op string
	// Attempts is the number of Exec attempts made. Zero for phases that
	// are never retried.
	Attempts int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("node %s: %s after %d attempts: %v", e.NodeID, e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// ItemError wraps the failure of a single batch item or parallel flow
// iteration. When several parallel items fail, the engine surfaces the one
// with the lowest Index after all items have settled.
type ItemError struct {
	// NodeID is the batch node (or flow start node) the item belongs to.
	NodeID string
	// Index is the item's position in the prepared sequence.
	Index int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("node %s: item %d: %v", e.NodeID, e.Index, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside a node lifecycle during a flow
// walk. It includes the stack trace for debugging.
type PanicError struct {
	// NodeID is the identifier of the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancelledError reports a flow walk aborted by context cancellation
// before the next step started.
type CancelledError struct {
	// NodeID is the node that was about to execute.
	NodeID string
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// MaxStepsError provides context when the opt-in step limit is exceeded.
type MaxStepsError struct {
	// Max is the configured step limit.
	Max int
	// NodeID is the node that would have executed next.
	NodeID string
}

// Error implements the error interface.
func (e *MaxStepsError) Error() string {
	return fmt.Sprintf("exceeded maximum steps (%d) at node %s", e.Max, e.NodeID)
}

// Unwrap returns ErrMaxSteps for errors.Is support.
func (e *MaxStepsError) Unwrap() error {
	return ErrMaxSteps
}
