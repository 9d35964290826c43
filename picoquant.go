// Package picoquant represents a quantum circuit as a tensor network:
// a graph whose nodes are tensors (gates, boundary states, decomposition
// factors) and whose edges are the indices shared between them.
//
// The package owns the graph and its mutation algorithms only. Tensor
// payloads live in a Backend, and contraction planning/execution is the
// business of external collaborators that consume the adjacency queries.
//
// References:
//   - Simulating quantum computation by contracting tensor networks, Igor Markov and Yaoyun Shi
package picoquant

import (
	"fmt"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

const (
	kindNode  = "node"
	kindIndex = "index"
)

// A Node records the shape of one tensor in the network: its axis index
// labels in storage order, and the label under which the backend holds its
// payload. The length of Indices always equals the payload's rank.
type Node struct {
	Indices   []string
	DataLabel string
}

// An Edge is an index shared by at most two nodes. Src and Dst are node
// labels, empty when that end is open. A non-virtual edge points along the
// circuit's input to output dataflow and carries the 1-based qubit of its
// wire. A virtual edge is a bond created by decomposition: it has no qubit
// (Qubit is 0) and its endpoints carry no flow direction.
type Edge struct {
	Src     string
	Dst     string
	Qubit   int
	Virtual bool
}

// Backend stores and factors tensor payloads by label.
// Decompose permutes the payload's axes to rowAxes followed by colAxes,
// reshapes to a matrix, truncates its SVD at singular values strictly
// greater than threshold, and stores the two factors under leftLabel and
// rightLabel. It returns the kept bond dimension.
type Backend interface {
	Store(dataLabel string, payload *tensor.Dense) error
	Fetch(dataLabel string) (*tensor.Dense, error)
	Decompose(dataLabel string, rowAxes, colAxes []int, threshold float32, leftLabel, rightLabel string) (int, error)
}

// A Circuit is a tensor network under construction.
// Its methods are synchronous single-writer mutations; see the package
// example for the intended build-then-query discipline.
type Circuit struct {
	backend  Backend
	counters map[string]int
	nodes    *OrderedMap[*Node]
	edges    *OrderedMap[*Edge]
	// inputs[q-1] and outputs[q-1] are the currently open boundary index
	// labels of qubit q.
	inputs  []string
	outputs []string
}

// New creates a circuit of numQubits open wires.
// Each wire starts as a single edge open on both ends, registered under
// labels index_1 through index_n.
func New(b Backend, numQubits int) (*Circuit, error) {
	if numQubits < 1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d", numQubits)
	}

	c := &Circuit{
		backend:  b,
		counters: make(map[string]int),
		nodes:    NewOrderedMap[*Node](),
		edges:    NewOrderedMap[*Edge](),
		inputs:   make([]string, 0, numQubits),
		outputs:  make([]string, 0, numQubits),
	}
	for q := 1; q <= numQubits; q++ {
		idx := c.newLabel(kindIndex)
		c.edges.Set(idx, &Edge{Qubit: q})
		c.inputs = append(c.inputs, idx)
		c.outputs = append(c.outputs, idx)
	}
	return c, nil
}

// newLabel returns a fresh kind_<n> identifier.
// Labels are never reused within a circuit's lifetime, even after node
// deletion, so a stale reference surfaces as an unknown label instead of
// aliasing a newer object.
func (c *Circuit) newLabel(kind string) string {
	c.counters[kind]++
	return fmt.Sprintf("%s_%d", kind, c.counters[kind])
}

// NumQubits returns the number of wires.
func (c *Circuit) NumQubits() int { return len(c.inputs) }

// NumNodes returns the number of registered nodes.
func (c *Circuit) NumNodes() int { return c.nodes.Len() }

// NumEdges returns the number of registered edges.
func (c *Circuit) NumEdges() int { return c.edges.Len() }

// Node returns a copy of the node registered under label.
func (c *Circuit) Node(label string) (Node, error) {
	n, ok := c.nodes.Get(label)
	if !ok {
		return Node{}, errors.Wrapf(ErrUnknownLabel, "%s", label)
	}
	cp := *n
	cp.Indices = append([]string(nil), n.Indices...)
	return cp, nil
}

// Edge returns a copy of the edge registered under label.
func (c *Circuit) Edge(label string) (Edge, error) {
	e, ok := c.edges.Get(label)
	if !ok {
		return Edge{}, errors.Wrapf(ErrUnknownLabel, "%s", label)
	}
	return *e, nil
}

// Nodes iterates over nodes in insertion order, which is the default
// contraction order of external planners.
func (c *Circuit) Nodes() func(yield func(string, Node) bool) {
	return func(yield func(string, Node) bool) {
		for label, n := range c.nodes.All() {
			cp := *n
			cp.Indices = append([]string(nil), n.Indices...)
			if !yield(label, cp) {
				return
			}
		}
	}
}

// Edges iterates over edges in insertion order.
func (c *Circuit) Edges() func(yield func(string, Edge) bool) {
	return func(yield func(string, Edge) bool) {
		for label, e := range c.edges.All() {
			if !yield(label, *e) {
				return
			}
		}
	}
}

// InputIndices returns the per-qubit open input index labels.
func (c *Circuit) InputIndices() []string {
	return append([]string(nil), c.inputs...)
}

// OutputIndices returns the per-qubit open output index labels, the points
// where the next gate on each qubit attaches.
func (c *Circuit) OutputIndices() []string {
	return append([]string(nil), c.outputs...)
}
