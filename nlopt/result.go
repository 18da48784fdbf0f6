package nlopt

import "github.com/Realife-Brahmin/nlopt-core/status"

// Result is what Optimize returns: the final iterate, the per-iteration
// history, cumulative evaluation counters, the stopping cause, and the
// echoed configuration.
type Result struct {
	Converged     bool
	Status        status.Status
	StatusMessage string
	Causes        []string

	Records []Record

	Iterations          int
	FunctionEvaluations int
	GradientEvaluations int

	X []float64
	F float64
	G []float64

	Warnings []string
	Config   Config
}
