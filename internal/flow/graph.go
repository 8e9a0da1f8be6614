// Package flow implements the graph engine that drives agent turns.
//
// A Graph is built from named nodes connected by plain or conditional
// edges, compiled into an immutable Compiled graph, and executed one
// node at a time. Execution can checkpoint after every node, suspend
// durably when a node calls Suspend, and resume later from the exact
// suspension point with a caller-supplied value.
package flow

import (
	"fmt"
	"strings"
)

// END is the terminal edge target. Routing to END stops the run.
const END = "__end__"

// NodeFunc is the signature of every node. State is passed by value;
// a node returns the updated state rather than mutating shared memory.
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc picks the next node for a conditional edge.
// It must return a node ID registered on the graph, or END.
type RouterFunc[S any] func(ctx Context, state S) string

// Graph is a mutable builder. Construct it on a single goroutine, then
// Compile; the resulting Compiled graph is safe for concurrent runs.
//
//	g := flow.New[State]().
//	    AddNode("think", think).
//	    AddConditionalEdge("think", route).
//	    SetEntry("think")
//	compiled, err := g.Compile()
type Graph[S any] struct {
	nodes   map[string]NodeFunc[S]
	edges   map[string]string
	routers map[string]RouterFunc[S]
	entry   string
}

// New creates an empty graph builder for state type S.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:   make(map[string]NodeFunc[S]),
		edges:   make(map[string]string),
		routers: make(map[string]RouterFunc[S]),
	}
}

// AddNode registers a named node. Panics on empty, reserved, or
// duplicate IDs and on nil functions: these are programming errors in
// graph construction, not runtime conditions.
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	if id == "" {
		panic("flow: node ID cannot be empty")
	}
	if lower := strings.ToLower(id); lower == "end" || lower == END {
		panic("flow: node ID conflicts with END")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("flow: node ID cannot contain whitespace")
	}
	if fn == nil {
		panic("flow: node function cannot be nil")
	}
	if _, dup := g.nodes[id]; dup {
		panic(fmt.Sprintf("flow: duplicate node ID %q", id))
	}
	g.nodes[id] = fn
	return g
}

// AddEdge connects from to to unconditionally. The target may be END.
// Reference validation is deferred to Compile so edges can be declared
// in any order.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = to
	return g
}

// AddConditionalEdge installs a router on from. A conditional edge
// takes precedence over a plain edge on the same node.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S]) *Graph[S] {
	if router == nil {
		panic("flow: router function cannot be nil")
	}
	g.routers[from] = router
	return g
}

// SetEntry names the node execution starts from.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.entry = id
	return g
}
