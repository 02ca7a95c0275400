// Package runlog records the step-by-step trail of flow runs for post-hoc
// inspection and debugging.
//
// A run log is an append-only sequence of entries, one per executed node,
// ordered by sequence number. It is a trace, not a checkpoint: the engine
// offers no way to resume a run from it.
package runlog

import (
	"errors"
	"time"
)

// Entry is one step of a flow run.
type Entry struct {
	// RunID identifies the run the step belongs to. Batch flow
	// iterations record under derived IDs of the form
	// "<run_id>/<iteration>".
	RunID string
	// Seq is the 1-based position of the step within the run.
	Seq int
	// NodeID is the node that executed.
	NodeID string
	// Action is the action the node returned. Empty if the step failed.
	Action string
	// Duration is how long the node lifecycle took.
	Duration time.Duration
	// Err is the step's error message, empty on success.
	Err string
	// Timestamp is when the step completed, in UTC.
	Timestamp time.Time
}

// Store persists run log entries.
// Implementations must be safe for concurrent use: parallel batch flows
// append from multiple goroutines.
type Store interface {
	// Append stores one entry.
	Append(e Entry) error

	// List returns all entries for a run, ordered by sequence.
	// Returns an empty slice (not an error) if the run has no entries.
	List(runID string) ([]Entry, error)

	// Runs returns the IDs of all recorded runs, sorted.
	Runs() ([]string, error)

	// DeleteRun removes all entries for a run.
	// Returns nil if the run has no entries.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("run log store closed")
