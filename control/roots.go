package control

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// leadingTrim is the relative size below which a leading coefficient is treated as zero.
const leadingTrim = 1e-12

// Roots returns all complex roots of the polynomial with coefficients p, highest power first.
// Roots are the eigenvalues of the companion matrix.
func Roots(p []float64) ([]complex128, error) {
	maxAbs := 0.0
	for _, c := range p {
		maxAbs = math.Max(maxAbs, math.Abs(c))
	}
	if maxAbs == 0 {
		return nil, nil
	}

	// Leading terms this small only move roots that lie far outside any lookahead circle.
	for len(p) > 0 && math.Abs(p[0]) <= leadingTrim*maxAbs {
		p = p[1:]
	}
	// Trailing zeros are roots at the origin.
	var zeros int
	for len(p) > 0 && p[len(p)-1] == 0 {
		p = p[:len(p)-1]
		zeros++
	}

	roots := make([]complex128, zeros, zeros+len(p))
	n := len(p) - 1
	if n < 1 {
		return roots, nil
	}

	companion := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		companion.Set(0, j, -p[j+1]/p[0])
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, fmt.Errorf("eigen decomposition of degree %d companion matrix did not converge", n)
	}
	return append(roots, eig.Values(nil)...), nil
}

// RealRoots keeps the real parts of roots whose imaginary part is below tol.
func RealRoots(roots []complex128, tol float64) []float64 {
	var out []float64
	for _, r := range roots {
		if math.Abs(imag(r)) < tol && !cmplx.IsNaN(r) {
			out = append(out, real(r))
		}
	}
	return out
}
