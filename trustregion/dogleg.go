// Package trustregion implements the positive-definite dogleg
// trust-region step: an alternative to line search that solves a
// quadratic model subproblem and adjusts the trust radius from the
// achieved/predicted reduction ratio.
package trustregion

import (
	"math"

	"github.com/Realife-Brahmin/nlopt-core/objective"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Settings bundles the trust-region tunables.
type Settings struct {
	Eta1, Eta2, Eta3 float64
	DeltaMin         float64
	DeltaMax         float64
	DeltaTol         float64
	MaxCond          float64
	Shrink           float64 // delta1, default 0.25
	Expand           float64 // delta2, default 2
}

// DefaultSettings returns eta = [0.01, 0.25, 0.75], deltamax = 100,
// maxcond = 1000, and deltatol = sqrt(eps).
func DefaultSettings() *Settings {
	return &Settings{
		Eta1: 0.01, Eta2: 0.25, Eta3: 0.75,
		DeltaMin: 1e-12,
		DeltaMax: 100,
		DeltaTol: math.Sqrt(2.220446049250313e-16),
		MaxCond:  1000,
		Shrink:   0.25,
		Expand:   2,
	}
}

// Result is what a dogleg step hands back to the iteration driver.
type Result struct {
	Accepted bool
	X        []float64 // only meaningful when Accepted
	F        float64
	G        []float64
	Delta    float64 // the updated radius
	Rho      float64
	Evals    int
}

// Step solves the dogleg subproblem for model Hessian B at (x, f, g)
// with current radius delta, evaluates the trial point, and returns the
// updated radius alongside the accept/reject decision.
func Step(adapter *objective.Adapter, iter int, x []float64, f float64, g []float64, b *mat.Dense, delta float64, s *Settings) (*Result, error) {
	n := len(g)
	bReg := regularize(b, s.MaxCond)

	gVec := mat.NewVecDense(n, g)
	bg := mat.NewVecDense(n, nil)
	bg.MulVec(bReg, gVec)
	gBg := mat.Dot(gVec, bg)
	gNorm := floats.Norm(g, 2)

	pU := make([]float64, n)
	if gBg <= 0 {
		scale := delta / gNorm
		for i, gi := range g {
			pU[i] = -scale * gi
		}
	} else {
		scale := gNorm * gNorm / gBg
		for i, gi := range g {
			pU[i] = -scale * gi
		}
	}

	var pBVec mat.VecDense
	newtonOK := pBVec.SolveVec(bReg, gVec) == nil
	pB := make([]float64, n)
	if newtonOK {
		for i := 0; i < n; i++ {
			pB[i] = -pBVec.AtVec(i)
		}
	} else {
		copy(pB, pU)
	}

	p := dogleg(pU, pB, delta)

	xTrial := make([]float64, n)
	for i := range xTrial {
		xTrial[i] = x[i] + p[i]
	}
	fTrial, gTrial, err := adapter.ValueGrad(iter, xTrial)
	if err != nil {
		return nil, err
	}

	predicted := -(floats.Dot(g, p) + 0.5*quadForm(bReg, p))
	actual := f - fTrial

	var rho float64
	if predicted <= 0 {
		rho = -1 // degenerate model: force a rejection/shrink
	} else {
		rho = actual / predicted
	}

	pNorm := floats.Norm(p, 2)
	boundary := pNorm >= 0.99*delta

	newDelta := delta
	accepted := true
	switch {
	case rho < s.Eta1:
		accepted = false
		newDelta = s.Shrink * delta
	case rho < s.Eta2:
		newDelta = s.Shrink * delta
	case rho < s.Eta3:
		// radius unchanged
	default:
		if boundary {
			newDelta = math.Min(s.Expand*delta, s.DeltaMax)
		}
	}
	if newDelta < s.DeltaMin {
		newDelta = s.DeltaMin
	}
	if newDelta > s.DeltaMax {
		newDelta = s.DeltaMax
	}

	res := &Result{Accepted: accepted, Delta: newDelta, Rho: rho, Evals: 1}
	if accepted {
		res.X, res.F, res.G = xTrial, fTrial, gTrial
	}
	return res, nil
}

func quadForm(b *mat.Dense, p []float64) float64 {
	n := len(p)
	pVec := mat.NewVecDense(n, p)
	bp := mat.NewVecDense(n, nil)
	bp.MulVec(b, pVec)
	return mat.Dot(pVec, bp)
}

// dogleg picks the point on the piecewise-linear path from the origin
// through the Cauchy point to the Newton point, clipped at radius delta.
func dogleg(pU, pB []float64, delta float64) []float64 {
	n := len(pU)
	normPB := floats.Norm(pB, 2)
	if normPB <= delta {
		return pB
	}
	normPU := floats.Norm(pU, 2)
	if normPU >= delta {
		out := make([]float64, n)
		scale := delta / normPU
		for i, v := range pU {
			out[i] = scale * v
		}
		return out
	}

	d := make([]float64, n)
	for i := range d {
		d[i] = pB[i] - pU[i]
	}
	a := floats.Dot(d, d)
	bCoef := 2 * floats.Dot(pU, d)
	c := floats.Dot(pU, pU) - delta*delta

	tau := 1.0
	if a > 0 {
		disc := bCoef*bCoef - 4*a*c
		if disc < 0 {
			disc = 0
		}
		tau = (-bCoef + math.Sqrt(disc)) / (2 * a)
		if tau < 0 {
			tau = 0
		}
		if tau > 1 {
			tau = 1
		}
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = pU[i] + tau*d[i]
	}
	return out
}

// regularize guards the condition number of B, shifting the spectrum
// so cond(B) == maxcond when it would otherwise exceed it. It returns
// a new matrix and never mutates b.
func regularize(b *mat.Dense, maxCond float64) *mat.Dense {
	n, _ := b.Dims()
	sym := symmetrize(b)

	symView := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			symView.SetSym(i, j, sym.At(i, j))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(symView, false) {
		return sym
	}
	values := eig.Values(nil)
	lambdaMin, lambdaMax := values[0], values[0]
	for _, v := range values {
		if v < lambdaMin {
			lambdaMin = v
		}
		if v > lambdaMax {
			lambdaMax = v
		}
	}
	if lambdaMin > 0 && lambdaMax/lambdaMin <= maxCond {
		return sym
	}

	shift := (lambdaMax - maxCond*lambdaMin) / (maxCond - 1)
	out := mat.DenseCopyOf(sym)
	for i := 0; i < n; i++ {
		out.Set(i, i, out.At(i, i)+shift)
	}
	return out
}

func symmetrize(b *mat.Dense) *mat.Dense {
	var t mat.Dense
	t.CloneFrom(b.T())
	out := mat.DenseCopyOf(b)
	out.Add(out, &t)
	out.Scale(0.5, out)
	return out
}
