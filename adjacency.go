package picoquant

import (
	"github.com/pkg/errors"
)

// The adjacency queries scan a node's axis indices against the live edge
// registry, so their results always reflect the current graph, including
// any rewiring done by decomposition. They never mutate the graph and are
// safe to call concurrently once construction has quiesced.

// Neighbors returns every node sharing an edge with node, in first
// encounter order over the node's axes. Self-loops are excluded.
func (c *Circuit) Neighbors(node string) ([]string, error) {
	return c.neighbors(node, func(e *Edge, out bool) bool { return true })
}

// InNeighbors returns the nodes feeding node over non-virtual edges.
func (c *Circuit) InNeighbors(node string) ([]string, error) {
	return c.neighbors(node, func(e *Edge, out bool) bool { return !e.Virtual && !out })
}

// OutNeighbors returns the nodes fed by node over non-virtual edges.
func (c *Circuit) OutNeighbors(node string) ([]string, error) {
	return c.neighbors(node, func(e *Edge, out bool) bool { return !e.Virtual && out })
}

// VirtualNeighbors returns the nodes bonded to node by virtual edges.
func (c *Circuit) VirtualNeighbors(node string) ([]string, error) {
	return c.neighbors(node, func(e *Edge, out bool) bool { return e.Virtual })
}

func (c *Circuit) neighbors(node string, keep func(e *Edge, out bool) bool) ([]string, error) {
	n, ok := c.nodes.Get(node)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLabel, "%s", node)
	}

	ns := make([]string, 0, len(n.Indices))
	seen := make(map[string]bool, len(n.Indices))
	for _, idx := range n.Indices {
		e, ok := c.edges.Get(idx)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownIndex, "%s %s", node, idx)
		}
		if e.Src == node && e.Dst == node {
			continue
		}
		other, out := e.Src, false
		if e.Src == node {
			other, out = e.Dst, true
		}
		if other == "" || seen[other] || !keep(e, out) {
			continue
		}
		seen[other] = true
		ns = append(ns, other)
	}
	return ns, nil
}

// InEdges returns the non-virtual index labels entering node.
func (c *Circuit) InEdges(node string) ([]string, error) {
	return c.incident(node, false)
}

// OutEdges returns the non-virtual index labels leaving node.
func (c *Circuit) OutEdges(node string) ([]string, error) {
	return c.incident(node, true)
}

func (c *Circuit) incident(node string, out bool) ([]string, error) {
	n, ok := c.nodes.Get(node)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLabel, "%s", node)
	}

	idxs := make([]string, 0, len(n.Indices))
	for _, idx := range n.Indices {
		e, ok := c.edges.Get(idx)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownIndex, "%s %s", node, idx)
		}
		if e.Virtual {
			continue
		}
		if (out && e.Src == node) || (!out && e.Dst == node) {
			idxs = append(idxs, idx)
		}
	}
	return idxs, nil
}
