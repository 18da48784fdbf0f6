package direction

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BFGS is the inverse-Hessian quasi-Newton strategy. H is kept
// symmetric positive-definite by construction: every update is
// explicitly symmetrized, and the curvature condition y·s > 0 is
// enforced by resetting to a scaled identity rather than ever applying
// an update that would break positive-definiteness.
type BFGS struct {
	dim int
	H   *mat.Dense

	// CurvatureReset counts how many times the curvature condition
	// failed and H was reset; surfaced for the warning log and tests.
	CurvatureReset int
}

// NewBFGS allocates a BFGS oracle for the given dimension.
func NewBFGS(dim int) *BFGS {
	return &BFGS{dim: dim}
}

// Init seeds H = f0 * I, where f0 is the objective value at the
// initial iterate. Non-positive or non-finite f0 falls back to I.
func (b *BFGS) Init(f0 float64) {
	b.H = mat.NewDense(b.dim, b.dim, nil)
	scale := f0
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	for i := 0; i < b.dim; i++ {
		b.H.Set(i, i, scale)
	}
}

// Direction returns p = -H g.
func (b *BFGS) Direction(g []float64) []float64 {
	gVec := mat.NewVecDense(b.dim, g)
	pVec := mat.NewVecDense(b.dim, nil)
	pVec.MulVec(b.H, gVec)
	p := make([]float64, b.dim)
	for i := range p {
		p[i] = -pVec.AtVec(i)
	}
	return p
}

// Update applies the inverse-Hessian BFGS recurrence using the most
// recent step s = x - x_prev and curvature y = g - g_prev, resetting to
// a scaled identity when y·s <= 0 or any intermediate quantity is
// non-finite. fCurrent seeds the reset scale, matching Init.
func (b *BFGS) Update(s, y []float64, fCurrent float64) (reset bool) {
	sVec := mat.NewVecDense(b.dim, s)
	yVec := mat.NewVecDense(b.dim, y)

	ys := mat.Dot(yVec, sVec)
	if !(ys > 0) || math.IsNaN(ys) || math.IsInf(ys, 0) {
		b.Init(fCurrent)
		b.CurvatureReset++
		return true
	}
	rho := 1 / ys

	Hy := mat.NewVecDense(b.dim, nil)
	Hy.MulVec(b.H, yVec)
	yHy := mat.Dot(yVec, Hy)

	var sHyT, HysT, ssT mat.Dense
	sHyT.Outer(rho, sVec, Hy)
	HysT.Outer(rho, Hy, sVec)
	ssT.Outer((1+yHy*rho)*rho, sVec, sVec)

	next := mat.NewDense(b.dim, b.dim, nil)
	next.Sub(b.H, &sHyT)
	next.Sub(next, &HysT)
	next.Add(next, &ssT)

	// Symmetrize: H <- (H + H^T) / 2. Keeps numerical drift from
	// accumulating an asymmetric H across many updates.
	var t mat.Dense
	t.CloneFrom(next.T())
	next.Add(next, &t)
	next.Scale(0.5, next)

	if !finiteMatrix(next) {
		b.Init(fCurrent)
		b.CurvatureReset++
		return true
	}

	b.H = next
	return false
}

func finiteMatrix(m *mat.Dense) bool {
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
