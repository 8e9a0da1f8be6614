package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/tutorgraph/tutorgraph/internal/flow/checkpoint"
	"github.com/tutorgraph/tutorgraph/internal/flow/observability"
)

// Run executes the graph from its entry point with the given state.
//
// It returns the state after the last executed node. The error is nil
// on normal termination at END; it is an *Interrupt when a node
// suspended the run (the state and checkpoint then hold everything
// needed for a later Resume); any other error is a failed turn.
func (cg *Compiled[S]) Run(ctx Context, state S, opts ...RunOption) (S, error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store != nil && ctx.Session() == "" {
		return state, ErrSessionRequired
	}

	return cg.runFrom(asExecContext(ctx), state, cg.entry, &cfg)
}

// runFrom drives the node loop from startNode until END, an error, or
// a suspension. Used by both Run and Resume.
func (cg *Compiled[S]) runFrom(ec *execContext, state S, startNode string, cfg *runConfig) (result S, runErr error) {
	start := time.Now()
	observability.LogTurnStart(ec.logger, ec.session)

	turnCtx, turnSpan := cfg.spans.StartTurnSpan(ec.Context, ec.session)
	defer func() {
		var intr *Interrupt
		if errors.As(runErr, &intr) {
			cfg.spans.EndSpan(turnSpan, nil)
		} else {
			cfg.spans.EndSpan(turnSpan, runErr)
		}
	}()

	current := startNode
	nodeCount := 0
	result = state

	finish := func(err error) error {
		durationMs := float64(time.Since(start).Milliseconds())
		var intr *Interrupt
		switch {
		case errors.As(err, &intr):
			cfg.metrics.RecordTurn(ec, true, time.Since(start))
			observability.LogTurnSuspended(ec.logger, ec.session, intr.NodeID)
		case err != nil:
			cfg.metrics.RecordTurn(ec, false, time.Since(start))
			observability.LogTurnError(ec.logger, ec.session, err, durationMs, lastNodeOf(err))
		default:
			cfg.metrics.RecordTurn(ec, true, time.Since(start))
			observability.LogTurnComplete(ec.logger, ec.session, durationMs, nodeCount)
		}
		return err
	}

	for current != END {
		nodeCount++
		if nodeCount > cfg.maxIterations {
			return result, finish(&MaxIterationsError{Max: cfg.maxIterations, LastNodeID: current})
		}

		select {
		case <-ec.Done():
			return result, finish(&CancellationError{NodeID: current, Cause: ec.Err()})
		default:
		}

		nodeCtx := ec.withNodeID(current)
		observability.LogNodeStart(nodeCtx.logger, current)
		_, nodeSpan := cfg.spans.StartNodeSpan(turnCtx, current)

		nodeStart := time.Now()
		next := ""

		state, runErr = cg.executeNode(nodeCtx, current, result)
		nodeDuration := time.Since(nodeStart)
		cfg.metrics.RecordNodeExecution(ec, current, nodeDuration, runErr)

		var intr *Interrupt
		if errors.As(runErr, &intr) {
			// Durable halt: persist the suspension point so Resume can
			// re-enter this exact node, then surface the interrupt.
			cfg.spans.EndSpan(nodeSpan, nil)
			intr.NodeID = current
			result = state
			if cfg.store != nil {
				if err := cg.saveSuspension(ec, cfg, current, result, intr); err != nil {
					return result, finish(err)
				}
			}
			return result, finish(intr)
		}
		cfg.spans.EndSpan(nodeSpan, runErr)
		if runErr != nil {
			observability.LogNodeError(nodeCtx.logger, current, runErr)
			return result, finish(runErr)
		}

		result = state
		observability.LogNodeComplete(nodeCtx.logger, current, float64(nodeDuration.Milliseconds()))

		next, runErr = cg.next(nodeCtx, result, current)
		if runErr != nil {
			return result, finish(runErr)
		}

		if cfg.store != nil {
			if err := cg.saveCheckpoint(ec, cfg, current, result, next); err != nil {
				return result, finish(err)
			}
		}

		current = next
	}

	return result, finish(nil)
}

// executeNode runs a single node with panic recovery. Interrupts pass
// through untouched; other errors are wrapped with node identity.
func (cg *Compiled[S]) executeNode(ctx *execContext, nodeID string, state S) (result S, err error) {
	fn, ok := cg.nodes[nodeID]
	if !ok {
		// Unreachable after a successful Compile, but resume positions
		// come from stored data.
		return state, &NodeError{NodeID: nodeID, Op: "lookup", Err: fmt.Errorf("node not found: %s", nodeID)}
	}

	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{NodeID: nodeID, Value: r, Stack: string(debug.Stack())}
		}
	}()

	result, err = fn(ctx, state)
	if err != nil {
		var intr *Interrupt
		if errors.As(err, &intr) {
			return result, err
		}
		return result, &NodeError{NodeID: nodeID, Op: "execute", Err: err}
	}
	return result, nil
}

// next resolves the outgoing edge for current, routers first.
func (cg *Compiled[S]) next(ctx *execContext, state S, current string) (string, error) {
	if router, ok := cg.routers[current]; ok {
		target := router(ctx, state)
		if target == "" {
			return "", &RouterError{FromNode: current, Returned: target, Err: ErrEmptyRoute}
		}
		if target != END && !cg.HasNode(target) {
			return "", &RouterError{FromNode: current, Returned: target, Err: ErrUnknownRoute}
		}
		return target, nil
	}

	target, ok := cg.edges[current]
	if !ok {
		return "", &NodeError{NodeID: current, Op: "routing", Err: fmt.Errorf("no outgoing edge from node %s", current)}
	}
	return target, nil
}

// saveCheckpoint persists state after a completed node. Checkpoint
// failures fail the turn: progressing without durability would break
// the resume contract.
func (cg *Compiled[S]) saveCheckpoint(ec *execContext, cfg *runConfig, nodeID string, state S, nextNode string) error {
	stateBytes, err := json.Marshal(state)
	if err != nil {
		return &CheckpointError{NodeID: nodeID, Op: "serialize", Err: err}
	}

	cfg.sequence++
	cp := checkpoint.New(ec.session, nodeID, cfg.sequence, stateBytes, nextNode)
	return cg.writeCheckpoint(ec, cfg, cp)
}

// saveSuspension persists an interrupt marker at the suspending node.
func (cg *Compiled[S]) saveSuspension(ec *execContext, cfg *runConfig, nodeID string, state S, intr *Interrupt) error {
	stateBytes, err := json.Marshal(state)
	if err != nil {
		return &CheckpointError{NodeID: nodeID, Op: "serialize", Err: err}
	}
	payload, err := json.Marshal(intr.Payload)
	if err != nil {
		return &CheckpointError{NodeID: nodeID, Op: "serialize", Err: err}
	}

	cfg.sequence++
	cp := checkpoint.New(ec.session, nodeID, cfg.sequence, stateBytes, nodeID).Suspended(payload)
	return cg.writeCheckpoint(ec, cfg, cp)
}

func (cg *Compiled[S]) writeCheckpoint(ec *execContext, cfg *runConfig, cp *checkpoint.Checkpoint) error {
	data, err := cp.Marshal()
	if err != nil {
		return &CheckpointError{NodeID: cp.NodeID, Op: "marshal", Err: err}
	}
	if err := cfg.store.Save(ec.session, cp.NodeID, data); err != nil {
		return &CheckpointError{NodeID: cp.NodeID, Op: "save", Err: err}
	}

	observability.LogCheckpoint(ec.logger, cp.NodeID, len(data))
	cfg.metrics.RecordCheckpoint(ec, cp.NodeID, int64(len(data)))
	return nil
}

// lastNodeOf extracts the failing node from typed execution errors.
func lastNodeOf(err error) string {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.NodeID
	}
	var maxErr *MaxIterationsError
	if errors.As(err, &maxErr) {
		return maxErr.LastNodeID
	}
	var cancelErr *CancellationError
	if errors.As(err, &cancelErr) {
		return cancelErr.NodeID
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return panicErr.NodeID
	}
	return ""
}
