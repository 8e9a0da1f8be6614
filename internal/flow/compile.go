package flow

import (
	"errors"
	"fmt"
	"log/slog"
)

// Compile validates the graph and returns an immutable Compiled graph.
// Validation errors are joined so the caller sees every problem at
// once. Unreachable nodes are logged as warnings, not errors.
func (g *Graph[S]) Compile() (*Compiled[S], error) {
	var errs []error

	if g.entry == "" {
		errs = append(errs, ErrNoEntry)
	} else if _, ok := g.nodes[g.entry]; !ok {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entry))
	}

	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: edge source %q does not exist", ErrNodeNotFound, from))
		}
		if to != END {
			if _, ok := g.nodes[to]; !ok {
				errs = append(errs, fmt.Errorf("%w: edge target %q does not exist", ErrNodeNotFound, to))
			}
		}
	}
	for from := range g.routers {
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: conditional edge source %q does not exist", ErrNodeNotFound, from))
		}
	}

	if g.entry != "" {
		if _, ok := g.nodes[g.entry]; ok && !g.hasPathToEnd() {
			errs = append(errs, ErrNoPathToEnd)
		}
	}

	g.warnUnreachable()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}
	edges := make(map[string]string, len(g.edges))
	for from, to := range g.edges {
		edges[from] = to
	}
	routers := make(map[string]RouterFunc[S], len(g.routers))
	for from, r := range g.routers {
		routers[from] = r
	}

	return &Compiled[S]{
		nodes:   nodes,
		edges:   edges,
		routers: routers,
		entry:   g.entry,
	}, nil
}

// hasPathToEnd reports whether END is reachable from the entry point.
// Nodes with routers are assumed to be able to reach END, since the
// router may return it at runtime.
func (g *Graph[S]) hasPathToEnd() bool {
	canReach := map[string]bool{END: true}
	for from := range g.routers {
		canReach[from] = true
	}

	changed := true
	for changed {
		changed = false
		for from, to := range g.edges {
			if !canReach[from] && canReach[to] {
				canReach[from] = true
				changed = true
			}
		}
	}
	return canReach[g.entry]
}

// warnUnreachable logs nodes that cannot be reached from the entry.
// Router targets are unknowable at compile time, so any node is
// considered reachable once a router is on the path.
func (g *Graph[S]) warnUnreachable() {
	if g.entry == "" {
		return
	}

	reachable := map[string]bool{g.entry: true}
	queue := []string{g.entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if to, ok := g.edges[current]; ok && to != END && !reachable[to] {
			reachable[to] = true
			queue = append(queue, to)
		}
		if _, ok := g.routers[current]; ok {
			for id := range g.nodes {
				if !reachable[id] {
					reachable[id] = true
					queue = append(queue, id)
				}
			}
		}
	}

	for id := range g.nodes {
		if !reachable[id] {
			slog.Warn("node is unreachable from entry", "node", id)
		}
	}
}
