package picoquant

import (
	"fmt"

	"github.com/pkg/errors"
)

// DecomposeOptions are options for Decompose.
type DecomposeOptions struct {
	leftLabel  string
	rightLabel string
}

// NewDecomposeOptions returns the default decomposition options, under
// which both factor labels are freshly allocated.
func NewDecomposeOptions() DecomposeOptions {
	return DecomposeOptions{}
}

// LeftLabel sets the label of the left factor node.
func (opt DecomposeOptions) LeftLabel(label string) DecomposeOptions {
	opt.leftLabel = label
	return opt
}

// RightLabel sets the label of the right factor node.
func (opt DecomposeOptions) RightLabel(label string) DecomposeOptions {
	opt.rightLabel = label
	return opt
}

// Decompose factors a node's tensor into two tensors joined by a new
// virtual bond, discarding singular values at or below threshold, and
// replaces the node in the graph by the two factors. leftIndices and
// rightIndices assign every axis of the node to exactly one factor; order
// within each group is preserved. The singular weight is split as a square
// root onto each factor so the two stay comparably scaled. Decompose
// returns the left and right factor labels.
//
// A threshold above every singular value yields a zero-size bond, which is
// degenerate but not an error.
func (c *Circuit) Decompose(node string, leftIndices, rightIndices []string, threshold float32, options ...DecomposeOptions) (string, string, error) {
	opt := NewDecomposeOptions()
	if len(options) > 0 {
		opt = options[0]
	}

	n, ok := c.nodes.Get(node)
	if !ok {
		return "", "", errors.Wrapf(ErrUnknownLabel, "%s", node)
	}
	if len(leftIndices)+len(rightIndices) != len(n.Indices) {
		return "", "", errors.Wrapf(ErrUnknownIndex, "%#v %#v %#v", leftIndices, rightIndices, n.Indices)
	}
	pos := make(map[string]int, len(n.Indices))
	for i, idx := range n.Indices {
		pos[idx] = i
	}
	seen := make(map[string]bool, len(n.Indices))
	axes := func(indices []string) ([]int, error) {
		ps := make([]int, 0, len(indices))
		for _, idx := range indices {
			p, ok := pos[idx]
			if !ok || seen[idx] {
				return nil, errors.Wrapf(ErrUnknownIndex, "%s %s", node, idx)
			}
			seen[idx] = true
			ps = append(ps, p)
		}
		return ps, nil
	}
	rowAxes, err := axes(leftIndices)
	if err != nil {
		return "", "", err
	}
	colAxes, err := axes(rightIndices)
	if err != nil {
		return "", "", err
	}

	left, right, err := c.factorLabels(opt)
	if err != nil {
		return "", "", err
	}
	bond := c.newLabel(kindIndex)
	if _, err := c.backend.Decompose(n.DataLabel, rowAxes, colAxes, threshold, left, right); err != nil {
		return "", "", errors.Wrap(err, "")
	}

	leftIdxs := append(append(make([]string, 0, len(leftIndices)+1), leftIndices...), bond)
	rightIdxs := append(append(make([]string, 0, len(rightIndices)+1), bond), rightIndices...)
	c.nodes.Set(left, &Node{Indices: leftIdxs, DataLabel: left})
	c.nodes.Set(right, &Node{Indices: rightIdxs, DataLabel: right})
	c.edges.Set(bond, &Edge{Src: left, Dst: right, Virtual: true})

	c.repoint(leftIndices, node, left)
	c.repoint(rightIndices, node, right)
	c.nodes.Delete(node)
	return left, right, nil
}

func (c *Circuit) factorLabels(opt DecomposeOptions) (string, string, error) {
	for _, label := range []string{opt.leftLabel, opt.rightLabel} {
		if label == "" {
			continue
		}
		if _, ok := c.nodes.Get(label); ok {
			return "", "", errors.Wrapf(ErrInvalidArgument, "%s", label)
		}
	}
	if opt.leftLabel != "" && opt.leftLabel == opt.rightLabel {
		return "", "", errors.Wrapf(ErrInvalidArgument, "%s", opt.leftLabel)
	}

	left, right := opt.leftLabel, opt.rightLabel
	if left == "" {
		left = c.newLabel(kindNode)
	}
	if right == "" {
		right = c.newLabel(kindNode)
	}
	return left, right, nil
}

// repoint retargets the endpoints of the given edges from one node to its
// replacement.
func (c *Circuit) repoint(indices []string, from, to string) {
	for _, idx := range indices {
		e, ok := c.edges.Get(idx)
		if !ok {
			panic(fmt.Sprintf("%s", idx))
		}
		if e.Src == from {
			e.Src = to
		}
		if e.Dst == from {
			e.Dst = to
		}
	}
}
