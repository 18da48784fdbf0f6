package direction

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestGradientDescentDirection(t *testing.T) {
	g := []float64{1, -2, 3}
	p := GradientDescent{}.Direction(g)
	assert.Equal(t, []float64{-1, 2, -3}, p)
	assert.Negative(t, floats.Dot(p, g))
}

func TestConjugateGradientFirstDirectionIsSteepest(t *testing.T) {
	cg := NewConjugateGradient()
	g := []float64{2, -1}
	p := cg.Direction(g, nil)
	assert.Equal(t, []float64{-2, 1}, p)
	assert.False(t, cg.JustRestarted)
	assert.Zero(t, cg.Beta)
}

func TestConjugateGradientBetaClampRestarts(t *testing.T) {
	cg := NewConjugateGradient()
	g1 := []float64{1, 0}
	cg.Direction(g1, nil)

	// g·(g - gPrev) < 0 clamps beta to zero and forces a restart.
	g2 := []float64{0.5, 0}
	p := cg.Direction(g2, g1)
	assert.True(t, cg.JustRestarted)
	assert.Zero(t, cg.Beta)
	assert.Equal(t, []float64{-0.5, 0}, p)
}

func TestConjugateGradientMixesPreviousDirection(t *testing.T) {
	cg := NewConjugateGradient()
	g1 := []float64{1, 0}
	p1 := cg.Direction(g1, nil)

	g2 := []float64{1, 1}
	p2 := cg.Direction(g2, g1)
	require.False(t, cg.JustRestarted)
	// beta = g2·(g2-g1)/(g1·g1) = 1, so p2 = -g2 + p1.
	assert.InDelta(t, 1.0, cg.Beta, 1e-14)
	want := []float64{-1 + p1[0], -1 + p1[1]}
	assert.InDeltaSlice(t, want, p2, 1e-14)
	assert.Negative(t, floats.Dot(p2, g2))
}

func TestConjugateGradientNonDescentRestarts(t *testing.T) {
	cg := NewConjugateGradient()
	g1 := []float64{1, 0}
	cg.Direction(g1, nil)

	// Chosen so the mixed candidate points uphill: beta is large and
	// positive while the steepest component is small.
	g2 := []float64{-3, 0}
	p := cg.Direction(g2, g1)
	assert.True(t, cg.JustRestarted)
	assert.Equal(t, []float64{3, 0}, p)
	assert.Negative(t, floats.Dot(p, g2))
}

func TestBFGSStaysPositiveDefinite(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	n := 4
	b := NewBFGS(n)
	b.Init(2.5)

	// Feed curvature pairs from a fixed SPD quadratic: y = A s.
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		a.Set(i, i, float64(i+1)*3)
	}
	for k := 0; k < 20; k++ {
		s := make([]float64, n)
		for i := range s {
			s[i] = rnd.NormFloat64()
		}
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			y[i] = a.At(i, i) * s[i]
		}
		reset := b.Update(s, y, 1)
		require.False(t, reset, "update %d should not reset", k)

		// H symmetric and v^T H v > 0 for random v.
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				assert.InDelta(t, b.H.At(i, j), b.H.At(j, i), 1e-12)
			}
		}
		v := make([]float64, n)
		for i := range v {
			v[i] = rnd.NormFloat64()
		}
		vVec := mat.NewVecDense(n, v)
		hv := mat.NewVecDense(n, nil)
		hv.MulVec(b.H, vVec)
		assert.Positive(t, mat.Dot(vVec, hv))
	}
}

func TestBFGSDirectionIsDescent(t *testing.T) {
	b := NewBFGS(3)
	b.Init(1)
	g := []float64{1, -4, 2}
	p := b.Direction(g)
	assert.Negative(t, floats.Dot(p, g))
}

func TestBFGSCurvatureFailureResets(t *testing.T) {
	b := NewBFGS(2)
	b.Init(1)
	reset := b.Update([]float64{1, 0}, []float64{-1, 0}, 3)
	assert.True(t, reset)
	assert.Equal(t, 1, b.CurvatureReset)
	// Reset re-seeds H = f * I.
	assert.Equal(t, 3.0, b.H.At(0, 0))
	assert.Equal(t, 3.0, b.H.At(1, 1))
	assert.Zero(t, b.H.At(0, 1))
}

func TestBFGSInitNonPositiveScaleFallsBack(t *testing.T) {
	b := NewBFGS(2)
	b.Init(0)
	assert.Equal(t, 1.0, b.H.At(0, 0))
	b.Init(math.NaN())
	assert.Equal(t, 1.0, b.H.At(0, 0))
}

func TestLBFGSMatchesSteepestDescentWithoutHistory(t *testing.T) {
	l := NewLBFGS(3, 5)
	g := []float64{1, -2, 0.5}
	assert.Equal(t, []float64{-1, 2, -0.5}, l.Direction(g))
}

func TestLBFGSDirectionIsDescent(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	n := 5
	l := NewLBFGS(n, 3)
	for k := 0; k < 10; k++ {
		s := make([]float64, n)
		y := make([]float64, n)
		for i := range s {
			s[i] = rnd.NormFloat64()
			y[i] = (float64(i) + 1) * s[i] // y = diag(1..n) s, SPD curvature
		}
		l.Record(s, y)

		g := make([]float64, n)
		for i := range g {
			g[i] = rnd.NormFloat64()
		}
		p := l.Direction(g)
		assert.Negative(t, floats.Dot(p, g), "round %d", k)
	}
}
