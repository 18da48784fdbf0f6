// Package tolerance implements the single-variable convergence check
// used throughout nlopt-core (gradient norm, objective change, iterate
// change).
package tolerance

import "math"

// Toler tracks a scalar quantity across iterations and reports
// absolute and relative convergence against tolerances fixed at Init.
type Toler struct {
	absTol float64
	relTol float64

	hist []float64
	last int
	full bool

	recent float64
}

// Init configures the Toler. A non-positive relTol disables the
// relative check. window is the number of iterations back the relative
// check compares against; it is ignored when relTol <= 0.
func (t *Toler) Init(absTol, relTol float64, window int, initVal float64) {
	t.absTol = absTol
	t.relTol = relTol
	t.recent = initVal
	t.full = false
	t.last = 0

	if relTol > 0 && window > 0 {
		if len(t.hist) < window {
			t.hist = make([]float64, window)
		} else {
			t.hist = t.hist[:window]
		}
		t.hist[0] = initVal
	}
}

// Add records a new observation after an iteration.
func (t *Toler) Add(v float64) {
	t.recent = v
	if t.relTol > 0 {
		t.last++
		if t.last == len(t.hist) {
			t.last = 0
			t.full = true
		}
		t.hist[t.last] = v
	}
}

// AbsConverged reports whether the most recent value is below absTol.
// A NaN absTol disables the check.
func (t *Toler) AbsConverged() bool {
	if math.IsNaN(t.absTol) {
		return false
	}
	return t.recent < t.absTol
}

// RelConverged reports whether the most recent value changed by less
// than relTol compared to the value recorded `window` iterations ago.
func (t *Toler) RelConverged() bool {
	if t.relTol <= 0 || len(t.hist) == 0 || !t.full {
		return false
	}
	prevInd := t.last + 1
	if prevInd == len(t.hist) {
		prevInd = 0
	}
	return math.Abs(t.hist[prevInd]-t.hist[t.last]) < t.relTol
}

// Value returns the most recently added observation.
func (t *Toler) Value() float64 { return t.recent }
