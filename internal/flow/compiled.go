package flow

// Compiled is an immutable, executable graph produced by Compile.
// It is safe for concurrent Run and Resume calls.
type Compiled[S any] struct {
	nodes   map[string]NodeFunc[S]
	edges   map[string]string
	routers map[string]RouterFunc[S]
	entry   string
}

// Entry returns the entry node ID.
func (cg *Compiled[S]) Entry() string { return cg.entry }

// HasNode reports whether a node exists in the graph.
func (cg *Compiled[S]) HasNode(id string) bool {
	_, ok := cg.nodes[id]
	return ok
}

// NodeIDs returns all node identifiers, in no particular order.
func (cg *Compiled[S]) NodeIDs() []string {
	ids := make([]string, 0, len(cg.nodes))
	for id := range cg.nodes {
		ids = append(ids, id)
	}
	return ids
}

// IsConditional reports whether a node routes through a RouterFunc.
func (cg *Compiled[S]) IsConditional(id string) bool {
	_, ok := cg.routers[id]
	return ok
}
