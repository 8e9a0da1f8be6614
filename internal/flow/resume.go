package flow

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tutorgraph/tutorgraph/internal/flow/checkpoint"
)

// Resume continues a suspended session. It loads the latest checkpoint
// for the context's session key, requires it to be an interrupt marker
// (ErrNotSuspended otherwise), arms value as the one-shot resume input
// and re-enters the graph at the suspended node. Checkpointing against
// store stays on for the rest of the run.
func (cg *Compiled[S]) Resume(ctx Context, store checkpoint.Store, value string, opts ...RunOption) (S, error) {
	var zero S
	if ctx == nil {
		return zero, ErrNilContext
	}
	if store == nil {
		return zero, errors.New("flow: resume requires a checkpoint store")
	}

	ec := asExecContext(ctx)
	if ec.session == "" {
		return zero, ErrSessionRequired
	}

	cp, err := Latest(store, ec.session)
	if err != nil {
		return zero, err
	}
	if !cp.Interrupted {
		return zero, fmt.Errorf("%w: session %s is at node %s", ErrNotSuspended, ec.session, cp.NodeID)
	}

	var state S
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return zero, fmt.Errorf("%w: state decode: %v", ErrBadCheckpoint, err)
	}
	if !cg.HasNode(cp.NodeID) {
		return zero, fmt.Errorf("%w: checkpoint references %s", ErrNodeNotFound, cp.NodeID)
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.store = store
	cfg.sequence = cp.Sequence

	ec.armResume(value)
	return cg.runFrom(ec, state, cp.NodeID, &cfg)
}

// Latest loads and decodes the most recent checkpoint for a session.
// Returns ErrNoCheckpoints for an unknown session.
func Latest(store checkpoint.Store, session string) (*checkpoint.Checkpoint, error) {
	infos, err := store.List(session)
	if err != nil {
		return nil, &CheckpointError{Op: "list", Err: err}
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: session %s", ErrNoCheckpoints, session)
	}

	latest := infos[len(infos)-1]
	data, err := store.Load(session, latest.NodeID)
	if err != nil {
		return nil, &CheckpointError{NodeID: latest.NodeID, Op: "load", Err: err}
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCheckpoint, err)
	}
	if cp.Version != checkpoint.Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCheckpointVersion, cp.Version, checkpoint.Version)
	}
	return cp, nil
}
