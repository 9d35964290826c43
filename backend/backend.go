// Package backend stores tensor payloads by data label and performs the
// truncated SVD factoring requested by the graph core, either in memory or
// in a sqlite database on disk. The core never inspects payloads beyond
// rank and shape; all numeric work lives here.
package backend

import (
	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// Mem is an in-memory tensor store.
type Mem struct {
	tensors map[string]*tensor.Dense
}

// NewMem returns an empty in-memory store.
func NewMem() *Mem {
	return &Mem{tensors: make(map[string]*tensor.Dense)}
}

// Store records payload under dataLabel, detached from the caller's
// buffers.
func (m *Mem) Store(dataLabel string, payload *tensor.Dense) error {
	m.tensors[dataLabel] = resetCopy(tensor.Zeros(1), payload)
	return nil
}

// Fetch returns the payload stored under dataLabel.
func (m *Mem) Fetch(dataLabel string) (*tensor.Dense, error) {
	t, ok := m.tensors[dataLabel]
	if !ok {
		return nil, errors.Errorf("%s", dataLabel)
	}
	return t, nil
}

// Decompose factors the payload under dataLabel over the given axis split
// and stores the two factors. It returns the kept bond dimension.
func (m *Mem) Decompose(dataLabel string, rowAxes, colAxes []int, threshold float32, leftLabel, rightLabel string) (int, error) {
	t, err := m.Fetch(dataLabel)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	left, right, chi, err := factor(t, rowAxes, colAxes, threshold)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	m.tensors[leftLabel] = left
	m.tensors[rightLabel] = right
	return chi, nil
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}
