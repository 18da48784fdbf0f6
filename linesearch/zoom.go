package linesearch

import "math"

// zoom refines the bracket [alphaLo, alphaHi] by cubic interpolation,
// falling back to bisection when the cubic step lands outside the
// bracket or too close to an endpoint. It normally terminates by
// satisfying the curvature condition; if the bracket collapses below
// s.ZoomTol first, the last trial is accepted anyway when it satisfies
// sufficient decrease, and reported as a failure otherwise.
func zoom(w *wolfeLine, alphaLo, alphaHi float64, s *Settings) (*Result, error) {
	maxIter := s.MaxZoomIter
	if maxIter <= 0 {
		maxIter = 50
	}
	tol := s.ZoomTol
	if tol <= 0 {
		tol = 1e-10
	}

	for iter := 0; iter < maxIter; iter++ {
		fLo, dLo, err := w.eval(alphaLo)
		if err != nil {
			return nil, err
		}

		alphaJ := cubicOrBisect(alphaLo, fLo, dLo, alphaHi, w, tol)

		fJ, dJ, err := w.eval(alphaJ)
		if err != nil {
			return nil, err
		}
		armijoOK := !w.armijoFails(alphaJ, fJ)

		if !armijoOK || fJ >= fLo {
			alphaHi = alphaJ
		} else {
			if w.curvatureOK(dJ) {
				return &Result{Alpha: alphaJ, X: w.lastX, F: fJ, G: w.lastG, Evals: w.evals}, nil
			}
			if dJ*(alphaHi-alphaLo) >= 0 {
				alphaHi = alphaLo
			}
			alphaLo = alphaJ
		}

		if math.Abs(alphaHi-alphaLo) < tol {
			if armijoOK {
				// Curvature never held inside the collapsed bracket;
				// the sufficient-decrease step is still usable.
				return &Result{Alpha: alphaJ, X: w.lastX, F: fJ, G: w.lastG, Evals: w.evals}, nil
			}
			return nil, fmtFailure("zoom bracket width fell below tolerance before satisfying sufficient decrease")
		}
	}
	return nil, fmtFailure("zoom exceeded its iteration budget")
}

// cubicOrBisect produces the next trial step inside [alphaLo, alphaHi]
// (in either order). It evaluates φ at alphaHi once to build the cubic
// model, then either accepts the cubic minimizer or bisects when that
// minimizer is too close to an endpoint or outside the bracket.
func cubicOrBisect(alphaLo, fLo, dLo, alphaHi float64, w *wolfeLine, tol float64) float64 {
	fHi, dHi, err := w.eval(alphaHi)
	if err != nil {
		// On evaluation failure, fall back to the midpoint; the outer
		// loop will surface the error on its own next eval.
		return 0.5 * (alphaLo + alphaHi)
	}

	lo, hi := alphaLo, alphaHi
	flip := lo > hi
	if flip {
		lo, hi = hi, lo
	}

	d1 := dLo + dHi - 3*(fLo-fHi)/(alphaLo-alphaHi)
	radicand := d1*d1 - dLo*dHi
	if radicand < 0 {
		return 0.5 * (lo + hi)
	}
	d2 := math.Sqrt(radicand)
	if flip {
		d2 = -d2
	}
	denom := dHi - dLo + 2*d2
	if denom == 0 {
		return 0.5 * (lo + hi)
	}
	alphaC := alphaHi - (alphaHi-alphaLo)*((dHi+d2-d1)/denom)

	margin := tol * (hi - lo)
	if math.IsNaN(alphaC) || alphaC <= lo+margin || alphaC >= hi-margin {
		return 0.5 * (lo + hi)
	}
	return alphaC
}
