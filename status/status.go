// Package status defines the closed set of causes for which the solver
// may stop iterating. nlopt-core never needs caller-registered custom
// causes, so the set is statically known.
package status

// Status expresses whether the solver should continue or why it stopped.
// Continue is the zero value so an unset Status never looks terminal.
type Status int

const (
	Continue Status = iota

	// GradPrevTol fires when |g_prev| < ngtol (checked before |g|).
	GradPrevTol
	// GradTol fires when |g| < ngtol.
	GradTol
	// ObjChangeTol fires when |f - f_prev| < dftol.
	ObjChangeTol
	// IterateChangeTol fires when |x - x_prev| < dxtol.
	IterateChangeTol
	// MaximumIterations fires when k >= maxiter.
	MaximumIterations
	// TrustRegionRadiusTol fires when the TR radius collapses below deltatol.
	TrustRegionRadiusTol

	// LineSearchFailure fires when Armijo backtracking underflows or
	// Strong-Wolfe cannot find an acceptable step (expansion saturates,
	// the zoom bracket collapses without sufficient decrease, or zoom
	// runs out of iterations).
	LineSearchFailure
	// NonFiniteValue fires when the objective or gradient returns NaN/Inf.
	NonFiniteValue
	// ConfigurationError names a Config that fails validation. Optimize
	// does not produce a Result carrying it: it returns an error wrapping
	// nlopt.ErrConfig instead.
	ConfigurationError
)

var names = map[Status]string{
	Continue:             "continue",
	GradPrevTol:          "gradient (previous) below tolerance",
	GradTol:              "gradient below tolerance",
	ObjChangeTol:         "objective change below tolerance",
	IterateChangeTol:     "iterate change below tolerance",
	MaximumIterations:    "maximum iterations reached",
	TrustRegionRadiusTol: "trust region radius below tolerance",
	LineSearchFailure:    "line search failed",
	NonFiniteValue:       "non-finite objective or gradient",
	ConfigurationError:   "configuration error",
}

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "unregistered status"
}

// Terminal reports whether a Status represents a stopped solver.
func (s Status) Terminal() bool { return s != Continue }

// Converged reports whether the Status represents a successful stop
// rather than a failure or a budget exhaustion.
func (s Status) Converged() bool {
	switch s {
	case LineSearchFailure, NonFiniteValue, ConfigurationError, MaximumIterations:
		return false
	default:
		return s.Terminal()
	}
}
