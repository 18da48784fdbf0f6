package direction

import "gonum.org/v1/gonum/floats"

// ConjugateGradient implements Polak-Ribière conjugate gradient with a
// hard restart: the internal iteration count resets to 1 whenever β
// clamps to zero or the candidate direction is not a descent direction.
type ConjugateGradient struct {
	kCG           int
	Beta          float64
	BetaPrev      float64
	JustRestarted bool

	pPrev []float64
}

// NewConjugateGradient returns a ConjugateGradient ready for its first
// Direction call (k_cg = 1, so the first direction is always -g).
func NewConjugateGradient() *ConjugateGradient {
	return &ConjugateGradient{kCG: 1}
}

// Reset forces the next Direction call back to the k_cg = 1 branch,
// used by the driver whenever it restarts CG for reasons outside this
// package's own descent check (e.g. after a line-search failure retry).
func (c *ConjugateGradient) Reset() { c.kCG = 1 }

// Direction returns the next PR+ search direction. g is the current
// gradient, gPrev the previous one; gPrev is ignored on a k_cg==1 call.
func (c *ConjugateGradient) Direction(g, gPrev []float64) []float64 {
	c.JustRestarted = false

	if c.kCG == 1 {
		p := negate(g)
		c.BetaPrev, c.Beta = c.Beta, 0
		c.pPrev = p
		c.kCG = 2
		return p
	}

	diff := make([]float64, len(g))
	copy(diff, g)
	floats.Sub(diff, gPrev)

	num := floats.Dot(g, diff)
	den := floats.Dot(gPrev, gPrev)

	beta := 0.0
	if den > 0 {
		beta = num / den
	}
	if beta < 0 {
		beta = 0
	}

	if beta == 0 {
		c.kCG = 1
		c.JustRestarted = true
		c.BetaPrev, c.Beta = c.Beta, 0
		p := negate(g)
		c.pPrev = p
		return p
	}

	p := negate(g)
	floats.AddScaled(p, beta, c.pPrev)

	if floats.Dot(p, g) >= 0 {
		// Candidate isn't a descent direction; hard restart.
		c.kCG = 1
		c.JustRestarted = true
		beta = 0
		p = negate(g)
	} else {
		c.kCG++
	}

	c.BetaPrev, c.Beta = c.Beta, beta
	c.pPrev = p
	return p
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}
