package nlopt

import (
	"errors"
	"fmt"
	"math"

	"github.com/Realife-Brahmin/nlopt-core/linesearch"
	"github.com/Realife-Brahmin/nlopt-core/trustregion"
)

// Config is the algorithm configuration bundle. All fields except
// Method are optional; DefaultConfig fills in the defaults.
type Config struct {
	Method     Method
	LineSearch LineSearch

	MaxIter int // 0 means unlimited, matching spec's "maxiter: ∞" default
	NGTol   float64
	DFTol   float64
	DXTol   float64

	Lambda    float64
	LambdaMax float64
	C1        float64
	C2        float64

	DeltaMax float64
	DeltaTol float64
	Eta      [3]float64
	MaxCond  float64
	Delta0   float64 // initial trust-region radius

	// Progress controls how often (in iterations) the driver emits a
	// progress row; 0 disables emission entirely.
	Progress int

	// LBFGSMemory is the history length for LimitedMemoryBFGS.
	LBFGSMemory int
}

// DefaultConfig returns the defaults for the given method. CG gets its
// own c1/c2 pair; a Wolfe curvature constant below 1/2 is what keeps
// the PR+ update well behaved.
func DefaultConfig(method Method) *Config {
	c := &Config{
		Method:      method,
		LineSearch:  Armijo,
		MaxIter:     0,
		NGTol:       1e-8,
		DFTol:       1e-8,
		DXTol:       1e-8,
		Lambda:      1,
		LambdaMax:   100,
		DeltaMax:    100,
		DeltaTol:    math.Sqrt(2.220446049250313e-16),
		Eta:         [3]float64{0.01, 0.25, 0.75},
		MaxCond:     1000,
		Delta0:      1,
		Progress:    1,
		LBFGSMemory: 20,
	}
	switch method {
	case ConjugateGradient:
		c.LineSearch = StrongWolfe
		c.C1, c.C2 = 1e-3, 0.4
	case BFGS, LimitedMemoryBFGS:
		c.LineSearch = StrongWolfe
		c.C1, c.C2 = 1e-4, 0.9
	case TrustRegion:
		c.C1, c.C2 = 1e-4, 0.9
	default:
		c.C1, c.C2 = 1e-4, 0.9
	}
	return c
}

// ErrConfig wraps every configuration error so callers can errors.Is
// against it.
var ErrConfig = errors.New("nlopt: configuration error")

// Validate checks the parameter constraints. It is called once at the
// top of Optimize; no iterations run if it fails.
func (c *Config) Validate(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrConfig)
	}
	if c.NGTol < 0 || c.DFTol < 0 || c.DXTol < 0 {
		return fmt.Errorf("%w: tolerances must be non-negative", ErrConfig)
	}
	if c.Lambda <= 0 || c.LambdaMax <= 0 || c.Lambda > c.LambdaMax {
		return fmt.Errorf("%w: require 0 < lambda <= lambdamax", ErrConfig)
	}

	ls := &linesearch.Settings{C1: c.C1, C2: c.C2}
	if err := ls.Validate(c.Method == ConjugateGradient); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if c.Method == TrustRegion {
		if !(0 <= c.Eta[0] && c.Eta[0] < c.Eta[1] && c.Eta[1] < c.Eta[2] && c.Eta[2] < 1) {
			return fmt.Errorf("%w: require 0 <= eta1 < eta2 < eta3 < 1", ErrConfig)
		}
		if c.DeltaMax <= 0 || c.Delta0 <= 0 || c.Delta0 > c.DeltaMax {
			return fmt.Errorf("%w: require 0 < delta0 <= deltamax", ErrConfig)
		}
		if c.MaxCond <= 1 {
			return fmt.Errorf("%w: require maxcond > 1", ErrConfig)
		}
	}
	if c.Method == LimitedMemoryBFGS && c.LBFGSMemory <= 0 {
		return fmt.Errorf("%w: require lbfgsmemory > 0", ErrConfig)
	}
	if c.LineSearch == GoldenSectionLS && c.Method != GradientDescent {
		return fmt.Errorf("%w: GoldenSection line search only supports GradientDescent", ErrConfig)
	}
	return nil
}

func (c *Config) linesearchSettings() *linesearch.Settings {
	return &linesearch.Settings{
		C1: c.C1, C2: c.C2,
		Lambda0: c.Lambda, LambdaMax: c.LambdaMax,
		MinStep: 1e-16, ZoomTol: 1e-10, MaxZoomIter: 50,
	}
}

func (c *Config) trustRegionSettings() *trustregion.Settings {
	return &trustregion.Settings{
		Eta1: c.Eta[0], Eta2: c.Eta[1], Eta3: c.Eta[2],
		DeltaMin: 1e-12, DeltaMax: c.DeltaMax, DeltaTol: c.DeltaTol,
		MaxCond: c.MaxCond, Shrink: 0.25, Expand: 2,
	}
}
