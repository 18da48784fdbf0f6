package nlopt

import "github.com/Realife-Brahmin/nlopt-core/objective"

// Problem bundles everything Optimize needs: the objective callable,
// its opaque parameter bundle, the initial guess, and the algorithm
// configuration. All run state lives in the Optimize call; nothing is
// kept at package level.
type Problem struct {
	Objective objective.Func
	Params    interface{}
	X0        []float64
	Config    *Config
}
