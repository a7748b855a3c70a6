package fitting

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"onelane/types"
)

// PolyFit2 least-squares fits x = a*y^2 + b*y + c.
// Columns of the Vandermonde matrix are scaled to unit norm before the rank test, and a
// rank below 3 at rcond = n*eps is reported as ErrFitUnstable.
func PolyFit2(ys, xs []float64) (types.Quadratic, error) {
	n := len(ys)
	if n == 0 || len(xs) == 0 {
		return types.Quadratic{}, types.ErrInsufficientData
	}
	if len(xs) != n {
		return types.Quadratic{}, fmt.Errorf("%w: %d ordinates for %d abscissae", types.ErrMalformedMask, len(xs), n)
	}

	v := mat.NewDense(n, 3, nil)
	for i, y := range ys {
		v.Set(i, 0, y*y)
		v.Set(i, 1, y)
		v.Set(i, 2, 1)
	}
	var scale [3]float64
	for j := range scale {
		scale[j] = mat.Norm(v.ColView(j), 2)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	for i := 0; i < n; i++ {
		for j := range scale {
			v.Set(i, j, v.At(i, j)/scale[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(v, mat.SVDThin); !ok {
		return types.Quadratic{}, types.ErrFitUnstable
	}
	sv := svd.Values(nil)
	rcond := float64(n) * eps
	rank := 0
	for _, s := range sv {
		if s > rcond*sv[0] {
			rank++
		}
	}
	if rank < 3 {
		return types.Quadratic{}, types.ErrFitUnstable
	}

	var coef mat.VecDense
	if err := coef.SolveVec(v, mat.NewVecDense(n, append([]float64(nil), xs...))); err != nil {
		return types.Quadratic{}, fmt.Errorf("%w: %v", types.ErrFitUnstable, err)
	}
	q := types.Quadratic{
		A: coef.AtVec(0) / scale[0],
		B: coef.AtVec(1) / scale[1],
		C: coef.AtVec(2) / scale[2],
	}
	if math.IsNaN(q.A) || math.IsNaN(q.B) || math.IsNaN(q.C) {
		return types.Quadratic{}, types.ErrFitUnstable
	}
	return q, nil
}

// eps is the float64 machine epsilon.
var eps = math.Nextafter(1, 2) - 1
