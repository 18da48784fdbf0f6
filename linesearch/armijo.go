package linesearch

import (
	"github.com/Realife-Brahmin/nlopt-core/objective"
)

// Armijo performs backtracking line search: starting from Lambda0,
// halve alpha while the sufficient-decrease condition fails.
// The final accepted step is re-evaluated with the gradient so the
// driver always receives a fresh (f, g) pair at the committed iterate.
func Armijo(adapter *objective.Adapter, iter int, x, p []float64, f float64, g []float64, s *Settings) (*Result, error) {
	dirGrad := directional(g, p)
	if err := checkDescent(dirGrad); err != nil {
		return nil, err
	}

	alpha := s.Lambda0
	evals := 0
	for alpha >= s.MinStep {
		xt := trial(x, p, alpha)
		ft, err := adapter.Value(iter, xt)
		evals++
		if err != nil {
			return nil, err
		}
		if ft <= f+s.C1*alpha*dirGrad {
			fNew, gNew, err := adapter.ValueGrad(iter, xt)
			evals++
			if err != nil {
				return nil, err
			}
			return &Result{Alpha: alpha, X: xt, F: fNew, G: gNew, Evals: evals}, nil
		}
		alpha *= 0.5
	}
	return nil, fmtFailure("step underflowed the minimum-step floor")
}
