package linesearch

import (
	"math"

	"github.com/Realife-Brahmin/nlopt-core/objective"
)

// wolfeLine evaluates the 1-D restriction φ(α) = f(x+αp) and its
// derivative φ'(α) = g(x+αp)·p, tracking evaluation count and the most
// recent (x, f, g) triple for the eventual Result.
type wolfeLine struct {
	adapter *objective.Adapter
	iter    int
	x, p    []float64

	f0, d0 float64 // φ(0), φ'(0)
	c1, c2 float64

	evals int

	lastX []float64
	lastF float64
	lastG []float64
}

func (w *wolfeLine) eval(alpha float64) (f, d float64, err error) {
	xt := trial(w.x, w.p, alpha)
	f, g, err := w.adapter.ValueGrad(w.iter, xt)
	w.evals++
	if err != nil {
		return 0, 0, err
	}
	w.lastX, w.lastF, w.lastG = xt, f, g
	return f, directional(g, w.p), nil
}

func (w *wolfeLine) armijoFails(alpha, f float64) bool {
	return f > w.f0+w.c1*alpha*w.d0
}

func (w *wolfeLine) curvatureOK(d float64) bool {
	return math.Abs(d) <= -w.c2*w.d0
}

// StrongWolfe finds a step satisfying both sufficient decrease and the
// strong curvature condition, by bracketing outward then zooming.
func StrongWolfe(adapter *objective.Adapter, iter int, x, p []float64, f float64, g []float64, s *Settings) (*Result, error) {
	d0 := directional(g, p)
	if err := checkDescent(d0); err != nil {
		return nil, err
	}

	w := &wolfeLine{adapter: adapter, iter: iter, x: x, p: p, f0: f, d0: d0, c1: s.C1, c2: s.C2}

	alphaPrev := 0.0
	fPrev := f
	alpha := s.Lambda0
	if alpha > s.LambdaMax {
		alpha = s.LambdaMax
	}

	for i := 1; ; i++ {
		fi, di, err := w.eval(alpha)
		if err != nil {
			return nil, err
		}

		if w.armijoFails(alpha, fi) || (i > 1 && fi >= fPrev) {
			return zoom(w, alphaPrev, alpha, s)
		}
		if w.curvatureOK(di) {
			return &Result{Alpha: alpha, X: w.lastX, F: fi, G: w.lastG, Evals: w.evals}, nil
		}
		if di >= 0 {
			return zoom(w, alpha, alphaPrev, s)
		}

		alphaPrev, fPrev = alpha, fi
		alpha *= 2
		if alpha > s.LambdaMax {
			alpha = s.LambdaMax
		}
		if alpha == alphaPrev {
			return nil, fmtFailure("step expansion saturated at lambda_max without satisfying Wolfe conditions")
		}
	}
}
