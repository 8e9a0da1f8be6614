package flow

import (
	"errors"
	"fmt"
)

// Graph construction and compilation errors.
var (
	// ErrNoEntry indicates SetEntry was not called before Compile.
	ErrNoEntry = errors.New("entry point not set")

	// ErrEntryNotFound indicates the entry references a missing node.
	ErrEntryNotFound = errors.New("entry point node not found")

	// ErrNodeNotFound indicates an edge references a missing node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoPathToEnd indicates END is unreachable from the entry.
	ErrNoPathToEnd = errors.New("no path to END from entry")
)

// Execution errors.
var (
	// ErrNilContext indicates Run or Resume received a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrMaxIterations indicates the run loop exceeded its limit.
	ErrMaxIterations = errors.New("exceeded maximum iterations")

	// ErrEmptyRoute indicates a router returned an empty string.
	ErrEmptyRoute = errors.New("router returned empty string")

	// ErrUnknownRoute indicates a router returned an unregistered node.
	ErrUnknownRoute = errors.New("router returned unknown node")
)

// Checkpointing and resume errors.
var (
	// ErrSessionRequired indicates checkpointing was enabled without a
	// session key.
	ErrSessionRequired = errors.New("session key required for checkpointing")

	// ErrNoCheckpoints indicates the session has no durable state.
	ErrNoCheckpoints = errors.New("no checkpoints found for session")

	// ErrNotSuspended indicates Resume was called on a session whose
	// latest checkpoint is not an interrupt marker.
	ErrNotSuspended = errors.New("session is not suspended")

	// ErrBadCheckpoint indicates a checkpoint could not be decoded.
	ErrBadCheckpoint = errors.New("failed to decode checkpoint")

	// ErrCheckpointVersion indicates an incompatible checkpoint format.
	ErrCheckpointVersion = errors.New("checkpoint version mismatch")
)

// Interrupt is returned (as an error) when a node suspends the run.
// The runner fills in NodeID before handing it to the caller; Payload
// is whatever the node passed to Suspend.
type Interrupt struct {
	NodeID  string
	Payload map[string]any
}

// Suspend halts graph execution at the current node. The runner
// checkpoints the suspension point and returns the *Interrupt to the
// caller; a later Resume re-enters the same node with the caller's
// value available via Context.TakeResume.
func Suspend(payload map[string]any) error {
	return &Interrupt{Payload: payload}
}

// Error implements the error interface.
func (i *Interrupt) Error() string {
	return fmt.Sprintf("execution suspended at node %s", i.NodeID)
}

// NodeError wraps a failure inside a node with its identity.
type NodeError struct {
	NodeID string
	Op     string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// PanicError captures a recovered panic from a node, with the stack
// at the point of panic.
type PanicError struct {
	NodeID string
	Value  any
	Stack  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// RouterError wraps an invalid routing decision.
type RouterError struct {
	FromNode string
	Returned string
	Err      error
}

func (e *RouterError) Error() string {
	return fmt.Sprintf("router from %s returned %q: %v", e.FromNode, e.Returned, e.Err)
}

func (e *RouterError) Unwrap() error { return e.Err }

// CheckpointError wraps a checkpoint persistence failure.
type CheckpointError struct {
	NodeID string
	Op     string
	Err    error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s at node %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *CheckpointError) Unwrap() error { return e.Err }

// MaxIterationsError reports the node at which the loop limit tripped.
type MaxIterationsError struct {
	Max        int
	LastNodeID string
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("exceeded maximum iterations (%d) at node %s", e.Max, e.LastNodeID)
}

func (e *MaxIterationsError) Unwrap() error { return ErrMaxIterations }

// CancellationError reports where execution was cancelled.
type CancellationError struct {
	NodeID string
	Cause  error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

func (e *CancellationError) Unwrap() error { return e.Cause }
