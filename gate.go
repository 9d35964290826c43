package picoquant

import (
	"fmt"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// AddGate inserts a gate acting on the given 1-based qubits and returns
// the new node's label. The payload's rank must be twice the number of
// target qubits, its first half of axes being inputs and second half
// outputs, both in target order. The gate's input indices are the open
// output indices of its targets, and one fresh output index per target
// becomes the new open end of that wire.
func (c *Circuit) AddGate(payload *tensor.Dense, qubits []int) (string, error) {
	if err := c.checkGate(payload, qubits); err != nil {
		return "", err
	}
	label, _, _, err := c.addGate(payload, qubits)
	return label, err
}

// AddSplitGate inserts a two-qubit gate and immediately factors it into
// two single-qubit-acting nodes joined by a virtual bond, truncated at
// threshold. It returns the two factor labels.
func (c *Circuit) AddSplitGate(payload *tensor.Dense, qubits []int, threshold float32) (string, string, error) {
	if err := c.checkGate(payload, qubits); err != nil {
		return "", "", err
	}
	if len(qubits) != 2 {
		return "", "", errors.Wrapf(ErrInvalidArgument, "%d", len(qubits))
	}

	label, in, out, err := c.addGate(payload, qubits)
	if err != nil {
		return "", "", err
	}
	return c.Decompose(label, []string{in[0], out[0]}, []string{in[1], out[1]}, threshold)
}

func (c *Circuit) checkGate(payload *tensor.Dense, qubits []int) error {
	if len(qubits) == 0 {
		return errors.Wrapf(ErrInvalidArgument, "%#v", qubits)
	}
	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		if q < 1 || q > c.NumQubits() || seen[q] {
			return errors.Wrapf(ErrInvalidArgument, "%#v", qubits)
		}
		seen[q] = true
	}
	if rank := len(payload.Shape()); rank != 2*len(qubits) {
		return errors.Wrapf(ErrDimensionMismatch, "%d %d", rank, 2*len(qubits))
	}
	return nil
}

func (c *Circuit) addGate(payload *tensor.Dense, qubits []int) (string, []string, []string, error) {
	in := make([]string, 0, len(qubits))
	for _, q := range qubits {
		in = append(in, c.outputs[q-1])
	}
	out := make([]string, 0, len(qubits))
	for range qubits {
		out = append(out, c.newLabel(kindIndex))
	}

	label := c.newLabel(kindNode)
	indices := append(append(make([]string, 0, 2*len(qubits)), in...), out...)
	if err := c.backend.Store(label, payload); err != nil {
		return "", nil, nil, errors.Wrap(err, "")
	}

	c.nodes.Set(label, &Node{Indices: indices, DataLabel: label})
	for i, q := range qubits {
		old, ok := c.edges.Get(in[i])
		if !ok {
			panic(fmt.Sprintf("%s", in[i]))
		}
		// The new output edge inherits the old edge's downstream end,
		// which threads the gate into an existing chain when inserting
		// after decomposition or after an output boundary is bound.
		c.edges.Set(out[i], &Edge{Src: label, Dst: old.Dst, Qubit: q})
		if old.Dst != "" {
			down, ok := c.nodes.Get(old.Dst)
			if !ok {
				panic(fmt.Sprintf("%s %s", in[i], old.Dst))
			}
			for j, idx := range down.Indices {
				if idx == in[i] {
					down.Indices[j] = out[i]
				}
			}
		}
		old.Dst = label
		c.outputs[q-1] = out[i]
	}
	return label, in, out, nil
}

// AddInput binds the computational basis state given by bits to the open
// input end of every wire. Positions whose input is already bound are left
// alone, so a repeated call is a no-op.
func (c *Circuit) AddInput(bits string) error {
	return c.bindBoundary(bits, true)
}

// AddOutput binds the computational basis state given by bits to the open
// output end of every wire. Positions whose output is already bound are
// left alone.
func (c *Circuit) AddOutput(bits string) error {
	return c.bindBoundary(bits, false)
}

func (c *Circuit) bindBoundary(bits string, input bool) error {
	if len(bits) != c.NumQubits() {
		return errors.Wrapf(ErrLengthMismatch, "%d %d", len(bits), c.NumQubits())
	}
	for _, b := range bits {
		if b != '0' && b != '1' {
			return errors.Wrapf(ErrInvalidCharacter, "%q", string(b))
		}
	}

	for i, b := range bits {
		idx := c.outputs[i]
		if input {
			idx = c.inputs[i]
		}
		e, ok := c.edges.Get(idx)
		if !ok {
			panic(fmt.Sprintf("%s", idx))
		}
		// Already bound on this side.
		if (input && e.Src != "") || (!input && e.Dst != "") {
			continue
		}

		label := c.newLabel(kindNode)
		if err := c.backend.Store(label, basisVector(b == '1')); err != nil {
			return errors.Wrap(err, "")
		}
		c.nodes.Set(label, &Node{Indices: []string{idx}, DataLabel: label})
		if input {
			e.Src = label
		} else {
			e.Dst = label
		}
	}
	return nil
}

// basisVector returns the single-qubit state [1,0] or [0,1].
func basisVector(one bool) *tensor.Dense {
	v := tensor.Zeros(2)
	if one {
		v.SetAt([]int{1}, 1)
	} else {
		v.SetAt([]int{0}, 1)
	}
	return v
}
