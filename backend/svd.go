package backend

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// factor splits t into a left and right factor over a new bond axis.
// The axes listed in rowAxes become the left factor's leading axes, the
// ones in colAxes the right factor's trailing axes; t reshaped that way is
// a rows x cols matrix whose SVD is truncated at singular values strictly
// greater than threshold. The singular weight is split as a square root
// onto each factor.
//
// The left factor has shape rowDims + [bond], the right [bond] + colDims.
// A fully truncated decomposition (chi = 0) is stored as a dimension-one
// zero bond, since a dense tensor cannot carry a zero-length axis; chi
// still reports 0.
func factor(t *tensor.Dense, rowAxes, colAxes []int, threshold float32) (left, right *tensor.Dense, chi int, err error) {
	shape := t.Shape()
	if len(rowAxes)+len(colAxes) != len(shape) {
		return nil, nil, 0, errors.Errorf("%#v %#v %#v", rowAxes, colAxes, shape)
	}
	perm := append(append(make([]int, 0, len(shape)), rowAxes...), colAxes...)
	rowDims := dims(shape, rowAxes)
	colDims := dims(shape, colAxes)
	rows, cols := prod(rowDims), prod(colDims)

	// Transposed views cannot be reshaped in place, copy first.
	m := resetCopy(tensor.Zeros(1), t.Transpose(perm...)).Reshape(rows, cols)
	a := make([][]complex128, rows)
	var sumSq float64
	for i := range a {
		a[i] = make([]complex128, cols)
		for j := range cols {
			v := complex128(m.At(i, j))
			a[i][j] = v
			sumSq += real(v)*real(v) + imag(v)*imag(v)
		}
	}

	u, s, v, err := svdJacobi(a)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "")
	}
	// The decomposition must conserve the matrix weight.
	if normA := math.Sqrt(sumSq); math.Abs(floats.Norm(s, 2)-normA) > 1e-8*(1+normA) {
		panic(fmt.Sprintf("%f %f", floats.Norm(s, 2), normA))
	}

	for _, sv := range s {
		if sv > float64(threshold) {
			chi++
		}
	}

	bond := max(chi, 1)
	lm := tensor.Zeros(rows, bond)
	for i := range rows {
		for k := range chi {
			lm.SetAt([]int{i, k}, complex64(u[i][k]*complex(math.Sqrt(s[k]), 0)))
		}
	}
	left = lm.Reshape(append(append(make([]int, 0, len(rowDims)+1), rowDims...), bond)...)

	rm := tensor.Zeros(bond, cols)
	for k := range chi {
		for j := range cols {
			rm.SetAt([]int{k, j}, complex64(complex(math.Sqrt(s[k]), 0)*cmplx.Conj(v[j][k])))
		}
	}
	right = rm.Reshape(append([]int{bond}, colDims...)...)
	return left, right, chi, nil
}

// svdJacobi computes the thin decomposition a = u @ diag(s) @ v.H by
// one-sided Jacobi rotations. It returns min(rows, cols) singular values
// sorted descending regardless of the rotation order, so truncation can
// take a prefix.
//
// References:
//   - Jacobi's method is more accurate than QR, James Demmel and Kresimir Veselic
func svdJacobi(a [][]complex128) (u [][]complex128, s []float64, v [][]complex128, err error) {
	rows, cols := len(a), len(a[0])
	// The sweeps orthogonalize columns, which is impossible when there
	// are more columns than rows. Factor the conjugate transpose instead
	// and swap the roles of u and v.
	if cols > rows {
		at := make([][]complex128, cols)
		for i := range at {
			at[i] = make([]complex128, rows)
			for j := range rows {
				at[i][j] = cmplx.Conj(a[j][i])
			}
		}
		ut, s, vt, err := svdJacobi(at)
		return vt, s, ut, err
	}

	w := make([][]complex128, rows)
	for i := range w {
		w[i] = append(make([]complex128, 0, cols), a[i]...)
	}
	vw := make([][]complex128, cols)
	for i := range vw {
		vw[i] = make([]complex128, cols)
		vw[i][i] = 1
	}

	const maxSweeps = 64
	const tol = 1e-14
	converged := false
	for sweep := 0; sweep < maxSweeps && !converged; sweep++ {
		converged = true
		for p := 0; p < cols-1; p++ {
			for q := p + 1; q < cols; q++ {
				var alpha, beta float64
				var gamma complex128
				for i := range rows {
					wp, wq := w[i][p], w[i][q]
					alpha += real(wp)*real(wp) + imag(wp)*imag(wp)
					beta += real(wq)*real(wq) + imag(wq)*imag(wq)
					gamma += cmplx.Conj(wp) * wq
				}
				absG := cmplx.Abs(gamma)
				if alpha == 0 || beta == 0 || absG <= tol*math.Sqrt(alpha*beta) {
					continue
				}
				converged = false

				phase := gamma / complex(absG, 0)
				zeta := (beta - alpha) / (2 * absG)
				tan := math.Copysign(1, zeta) / (math.Abs(zeta) + math.Sqrt(1+zeta*zeta))
				cos := 1 / math.Sqrt(1+tan*tan)
				sin := cos * tan

				rotate(w, p, q, cos, sin, phase)
				rotate(vw, p, q, cos, sin, phase)
			}
		}
	}
	if !converged {
		return nil, nil, nil, errors.Errorf("%d %d %d", rows, cols, maxSweeps)
	}

	// Columns of w are now orthogonal with norms equal to the singular
	// values.
	s = make([]float64, cols)
	for j := range cols {
		var sq float64
		for i := range rows {
			wj := w[i][j]
			sq += real(wj)*real(wj) + imag(wj)*imag(wj)
		}
		s[j] = math.Sqrt(sq)
	}
	order := make([]int, cols)
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(x, y int) bool { return s[order[x]] > s[order[y]] })

	sorted := make([]float64, cols)
	u = make([][]complex128, rows)
	for i := range u {
		u[i] = make([]complex128, cols)
	}
	v = make([][]complex128, cols)
	for i := range v {
		v[i] = make([]complex128, cols)
	}
	for j, oj := range order {
		sorted[j] = s[oj]
		if s[oj] > 0 {
			for i := range rows {
				u[i][j] = w[i][oj] / complex(s[oj], 0)
			}
		}
		for i := range cols {
			v[i][j] = vw[i][oj]
		}
	}
	return u, sorted, v, nil
}

// rotate applies the complex plane rotation to columns p and q.
func rotate(m [][]complex128, p, q int, cos, sin float64, phase complex128) {
	for i := range m {
		mp, mq := m[i][p], m[i][q]
		m[i][p] = complex(cos, 0)*mp - complex(sin, 0)*cmplx.Conj(phase)*mq
		m[i][q] = complex(sin, 0)*phase*mp + complex(cos, 0)*mq
	}
}

func dims(shape, axes []int) []int {
	ds := make([]int, 0, len(axes))
	for _, a := range axes {
		ds = append(ds, shape[a])
	}
	return ds
}

func prod(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}
