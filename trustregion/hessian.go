package trustregion

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// UpdateHessian applies the direct BFGS update to the trust-region's
// model Hessian B (as opposed to direction.BFGS's inverse-Hessian
// update), since the dogleg step needs B itself to form both the
// Cauchy point and the Newton point. The curvature condition y·s > 0
// is enforced the same way as in direction.BFGS: on failure, reset to
// a scaled identity.
func UpdateHessian(b *mat.Dense, s, y []float64, fCurrent float64) (out *mat.Dense, reset bool) {
	n, _ := b.Dims()
	sVec := mat.NewVecDense(n, s)
	yVec := mat.NewVecDense(n, y)

	ys := mat.Dot(yVec, sVec)
	if !(ys > 0) || math.IsNaN(ys) || math.IsInf(ys, 0) {
		return Identity(n, fCurrent), true
	}

	Bs := mat.NewVecDense(n, nil)
	Bs.MulVec(b, sVec)
	sBs := mat.Dot(sVec, Bs)
	if sBs <= 0 {
		return Identity(n, fCurrent), true
	}

	var bssB, yyT mat.Dense
	bssB.Outer(1/sBs, Bs, Bs)
	yyT.Outer(1/ys, yVec, yVec)

	next := mat.NewDense(n, n, nil)
	next.Sub(b, &bssB)
	next.Add(next, &yyT)

	var t mat.Dense
	t.CloneFrom(next.T())
	next.Add(next, &t)
	next.Scale(0.5, next)

	if !finite(next) {
		return Identity(n, fCurrent), true
	}
	return next, false
}

// Identity returns a scaled-identity model Hessian, matching
// direction.BFGS's first-iteration initialization.
func Identity(n int, scale float64) *mat.Dense {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, scale)
	}
	return out
}

func finite(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
