package direction

import "gonum.org/v1/gonum/floats"

// LBFGS is the bounded-memory sibling of BFGS. The two-loop recursion
// approximates the same inverse-Hessian action as BFGS without ever
// materializing an n×n matrix, trading exactness for O(memory·n) cost
// per direction.
type LBFGS struct {
	dim    int
	memory int

	counter int
	looped  bool

	sHist  [][]float64
	yHist  [][]float64
	invRho []float64
	alpha  []float64
}

// NewLBFGS allocates an LBFGS oracle with the given history length.
func NewLBFGS(dim, memory int) *LBFGS {
	l := &LBFGS{dim: dim, memory: memory}
	l.sHist = make([][]float64, memory)
	l.yHist = make([][]float64, memory)
	l.invRho = make([]float64, memory)
	l.alpha = make([]float64, memory)
	for i := range l.sHist {
		l.sHist[i] = make([]float64, dim)
		l.yHist[i] = make([]float64, dim)
	}
	return l
}

// Record stores the most recent (s, y) pair after an accepted step.
func (l *LBFGS) Record(s, y []float64) {
	copy(l.sHist[l.counter], s)
	copy(l.yHist[l.counter], y)
	l.invRho[l.counter] = floats.Dot(y, s)

	l.counter++
	if l.counter == l.memory {
		l.counter = 0
		l.looped = true
	}
}

// Direction runs the two-loop recursion to approximate -H g without
// forming H explicitly.
func (l *LBFGS) Direction(g []float64) []float64 {
	q := make([]float64, l.dim)
	copy(q, g)
	floats.Scale(-1, q)

	max := l.memory
	if !l.looped {
		max = l.counter
	}
	if max == 0 {
		return q
	}

	for i := 0; i < max; i++ {
		ind := l.counter - 1 - i
		if ind < 0 {
			ind += l.memory
		}
		if l.invRho[ind] == 0 {
			continue
		}
		l.alpha[ind] = floats.Dot(l.sHist[ind], q) / l.invRho[ind]
		floats.AddScaled(q, -l.alpha[ind], l.yHist[ind])
	}

	for i := max - 1; i >= 0; i-- {
		ind := l.counter - 1 - i
		if ind < 0 {
			ind += l.memory
		}
		if l.invRho[ind] == 0 {
			continue
		}
		beta := floats.Dot(l.yHist[ind], q) / l.invRho[ind]
		floats.AddScaled(q, l.alpha[ind]-beta, l.sHist[ind])
	}
	return q
}
