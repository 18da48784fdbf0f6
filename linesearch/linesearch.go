// Package linesearch implements step-length selection: Armijo
// backtracking for first-order methods, and Strong-Wolfe with a
// cubic-interpolation zoom for CG and BFGS.
package linesearch

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Result is what a line search hands back to the iteration driver.
type Result struct {
	Alpha float64   // accepted step length
	X     []float64 // x + alpha*p
	F     float64   // f(X)
	G     []float64 // ∇f(X), freshly evaluated at the accepted point
	Evals int       // function evaluations spent in this call
}

// Settings bundles the line-search constants, validated once at
// construction.
type Settings struct {
	C1        float64
	C2        float64
	Lambda0   float64
	LambdaMax float64

	// MinStep is the machine-precision floor below which Armijo
	// declares failure.
	MinStep float64
	// ZoomTol is α_tol, the bracket-width floor for Strong-Wolfe zoom.
	ZoomTol float64
	// MaxZoomIter bounds the zoom loop so a pathological bracket cannot
	// spin forever; exceeding it reports a line-search failure.
	MaxZoomIter int
}

// Validate enforces the parameter constraints. forCG additionally
// enforces 0 < c1 < c2 < 1/2; otherwise c1 < c2 < 1 is required by
// Strong-Wolfe's ordering. c2 is checked whichever line search the
// caller runs.
func (s *Settings) Validate(forCG bool) error {
	if !(s.C1 > 0 && s.C1 < 0.5) {
		return errors.New("linesearch: require 0 < c1 < 1/2")
	}
	if forCG {
		if !(s.C1 < s.C2 && s.C2 < 0.5) {
			return errors.New("linesearch: CG requires c1 < c2 < 1/2")
		}
	} else if !(s.C1 < s.C2 && s.C2 < 1) {
		return errors.New("linesearch: require c1 < c2 < 1")
	}
	return nil
}

// DefaultSettings returns the default constants. forCG selects the
// CG-specific c1/c2 pair, applied unconditionally whenever forCG is
// true.
func DefaultSettings(forCG bool) *Settings {
	s := &Settings{
		Lambda0:     1,
		LambdaMax:   100,
		MinStep:     1e-16,
		ZoomTol:     1e-10,
		MaxZoomIter: 50,
	}
	if forCG {
		s.C1, s.C2 = 1e-3, 0.4
	} else {
		s.C1, s.C2 = 1e-4, 0.9
	}
	return s
}

// ErrFailed is returned (wrapped with context) when a line search
// cannot satisfy its accept condition; the driver records this as
// status.LineSearchFailure and returns the best iterate found so far.
var ErrFailed = errors.New("linesearch: failed to find an accepted step")

func trial(x, p []float64, alpha float64) []float64 {
	xt := make([]float64, len(x))
	for i := range xt {
		xt[i] = x[i] + alpha*p[i]
	}
	return xt
}

func directional(g, p []float64) float64 {
	return floats.Dot(g, p)
}

func fmtFailure(reason string) error {
	return fmt.Errorf("%w: %s", ErrFailed, reason)
}

// checkDescent rejects a direction the caller should never have handed
// to a line search; direction selection is responsible for descent.
func checkDescent(dirGrad float64) error {
	if dirGrad >= 0 {
		return fmtFailure("initial directional derivative is non-negative")
	}
	return nil
}
