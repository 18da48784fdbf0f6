// Package objective adapts a user-supplied callable and its opaque
// parameter bundle to the evaluation contract the rest of nlopt-core
// depends on. The solver never resolves a function by name or reflects
// over the callable; it is bound once, here, at construction.
package objective

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Mode selects whether a call must also produce the gradient.
type Mode int

const (
	ValueOnly Mode = iota
	ValueAndGradient
)

// Func is the callable contract: given x and mode, return f, and g when
// mode is ValueAndGradient. g has length n; implementations must write
// into it in place when provided, but ValueGrad always returns a fresh
// slice to its own caller so direction/line-search code never aliases
// the objective's internal buffers.
type Func func(x []float64, g []float64, mode Mode) (f float64)

// NonFiniteError reports that the objective or gradient produced a
// NaN or Inf value; the driver treats this as fatal.
type NonFiniteError struct {
	Iteration int
	X         []float64
	F         float64
	G         []float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("objective: non-finite value at iteration %d (f=%v, x=%v)", e.Iteration, e.F, e.X)
}

// Adapter wraps a Func plus an opaque parameter bundle and counts
// evaluations. It is safe to call from one goroutine at a time and need
// not be re-entrant; nlopt-core never calls it concurrently.
type Adapter struct {
	fn     Func
	params interface{}
	n      int

	funEvals  int
	gradEvals int
}

// New builds an Adapter for a problem of dimension n. params is an
// opaque bundle the caller may close over inside fn instead; it is
// retained here only so callers building their own direction/line-
// search experiments can recover it via Params().
func New(fn Func, params interface{}, n int) *Adapter {
	return &Adapter{fn: fn, params: params, n: n}
}

// Params returns the opaque parameter bundle supplied at construction.
func (a *Adapter) Params() interface{} { return a.params }

// FunctionEvaluations returns the cumulative number of evaluations that
// requested at least a value.
func (a *Adapter) FunctionEvaluations() int { return a.funEvals }

// GradientEvaluations returns the cumulative number of evaluations that
// requested a gradient.
func (a *Adapter) GradientEvaluations() int { return a.gradEvals }

// Value evaluates f(x) only.
func (a *Adapter) Value(iter int, x []float64) (float64, error) {
	f := a.fn(x, nil, ValueOnly)
	a.funEvals++
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f, &NonFiniteError{Iteration: iter, X: x, F: f}
	}
	return f, nil
}

// ValueGrad evaluates f(x) and ∇f(x), returning a freshly allocated
// gradient slice so callers never alias the adapter's internal state.
func (a *Adapter) ValueGrad(iter int, x []float64) (f float64, g []float64, err error) {
	g = make([]float64, a.n)
	f = a.fn(x, g, ValueAndGradient)
	a.funEvals++
	a.gradEvals++
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f, g, &NonFiniteError{Iteration: iter, X: x, F: f, G: g}
	}
	for _, gi := range g {
		if math.IsNaN(gi) || math.IsInf(gi, 0) {
			return f, g, &NonFiniteError{Iteration: iter, X: x, F: f, G: g}
		}
	}
	return f, g, nil
}

// Dim returns the problem dimension n.
func (a *Adapter) Dim() int { return a.n }

// GradientNorm returns the Euclidean norm of g. Every stopping
// criterion and report in nlopt-core measures the gradient this way.
func GradientNorm(g []float64) float64 {
	return floats.Norm(g, 2)
}
