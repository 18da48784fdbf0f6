// Package direction selects descent directions: given the current and
// previous gradients, produce a direction p with p·g < 0, mutating only
// the method-specific sub-state each strategy owns (CG's β, BFGS's
// inverse Hessian, ...). The trust-region method lives in the
// trustregion package since it produces a step, not a direction.
package direction

// GradientDescent is the steepest-descent oracle: p = -g. It carries no
// state across iterations.
type GradientDescent struct{}

// Direction returns -g.
func (GradientDescent) Direction(g []float64) []float64 {
	p := make([]float64, len(g))
	for i, gi := range g {
		p[i] = -gi
	}
	return p
}
