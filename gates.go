package picoquant

import (
	"math"

	"github.com/fumin/tensor"
)

var (
	// PauliX is the single-qubit NOT matrix.
	PauliX = [][]complex64{
		{0, 1},
		{1, 0},
	}
	PauliZ = [][]complex64{
		{1, 0},
		{0, -1},
	}
)

// Hadamard returns the single-qubit Hadamard gate with axes (in, out).
func Hadamard() *tensor.Dense {
	h := complex64(complex(1/math.Sqrt2, 0))
	return tensor.T2([][]complex64{
		{h, h},
		{h, -h},
	})
}

// XGate returns the single-qubit NOT gate with axes (in, out).
func XGate() *tensor.Dense {
	return tensor.T2(PauliX)
}

// ZGate returns the single-qubit phase-flip gate with axes (in, out).
func ZGate() *tensor.Dense {
	return tensor.T2(PauliZ)
}

// CNOT returns the controlled-NOT gate with axes (in1, in2, out1, out2),
// qubit 1 controlling qubit 2.
func CNOT() *tensor.Dense {
	t := tensor.Zeros(2, 2, 2, 2)
	for i1 := range 2 {
		for i2 := range 2 {
			t.SetAt([]int{i1, i2, i1, i2 ^ i1}, 1)
		}
	}
	return t
}
