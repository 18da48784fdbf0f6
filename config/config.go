// Package config overlays environment-variable overrides onto an
// nlopt.Config, so a containerized sweep or batch job can be retuned
// without a rebuild.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"

	"github.com/Realife-Brahmin/nlopt-core/nlopt"
)

// overrides mirrors the tunable Config fields as pointers; a field is
// applied only when its variable is actually set.
type overrides struct {
	Method     *string  `env:"NLOPT_METHOD"`
	LineSearch *string  `env:"NLOPT_LINESEARCH"`
	MaxIter    *int     `env:"NLOPT_MAXITER"`
	NGTol      *float64 `env:"NLOPT_NGTOL"`
	DFTol      *float64 `env:"NLOPT_DFTOL"`
	DXTol      *float64 `env:"NLOPT_DXTOL"`
	Lambda     *float64 `env:"NLOPT_LAMBDA"`
	LambdaMax  *float64 `env:"NLOPT_LAMBDAMAX"`
	C1         *float64 `env:"NLOPT_C1"`
	C2         *float64 `env:"NLOPT_C2"`
	Delta0     *float64 `env:"NLOPT_DELTA0"`
	DeltaMax   *float64 `env:"NLOPT_DELTAMAX"`
	DeltaTol   *float64 `env:"NLOPT_DELTATOL"`
	MaxCond    *float64 `env:"NLOPT_MAXCOND"`
	Progress   *int     `env:"NLOPT_PROGRESS"`
	Memory     *int     `env:"NLOPT_LBFGS_MEMORY"`
}

// FromEnv copies base, applies any NLOPT_* environment overrides, and
// returns the result. base is never mutated. Validation is left to
// Optimize so programmatic and env-driven configs fail the same way.
func FromEnv(base *nlopt.Config) (*nlopt.Config, error) {
	o := &overrides{}
	if err := env.Parse(o); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := *base
	if o.Method != nil {
		m, err := ParseMethod(*o.Method)
		if err != nil {
			return nil, err
		}
		cfg.Method = m
	}
	if o.LineSearch != nil {
		ls, err := ParseLineSearch(*o.LineSearch)
		if err != nil {
			return nil, err
		}
		cfg.LineSearch = ls
	}
	if o.MaxIter != nil {
		cfg.MaxIter = *o.MaxIter
	}
	if o.NGTol != nil {
		cfg.NGTol = *o.NGTol
	}
	if o.DFTol != nil {
		cfg.DFTol = *o.DFTol
	}
	if o.DXTol != nil {
		cfg.DXTol = *o.DXTol
	}
	if o.Lambda != nil {
		cfg.Lambda = *o.Lambda
	}
	if o.LambdaMax != nil {
		cfg.LambdaMax = *o.LambdaMax
	}
	if o.C1 != nil {
		cfg.C1 = *o.C1
	}
	if o.C2 != nil {
		cfg.C2 = *o.C2
	}
	if o.Delta0 != nil {
		cfg.Delta0 = *o.Delta0
	}
	if o.DeltaMax != nil {
		cfg.DeltaMax = *o.DeltaMax
	}
	if o.DeltaTol != nil {
		cfg.DeltaTol = *o.DeltaTol
	}
	if o.MaxCond != nil {
		cfg.MaxCond = *o.MaxCond
	}
	if o.Progress != nil {
		cfg.Progress = *o.Progress
	}
	if o.Memory != nil {
		cfg.LBFGSMemory = *o.Memory
	}
	return &cfg, nil
}

// ParseMethod maps a method name to its nlopt.Method value,
// case-insensitively.
func ParseMethod(name string) (nlopt.Method, error) {
	switch strings.ToLower(name) {
	case "gradientdescent", "gd":
		return nlopt.GradientDescent, nil
	case "conjugategradient", "cg":
		return nlopt.ConjugateGradient, nil
	case "bfgs":
		return nlopt.BFGS, nil
	case "trustregion", "tr":
		return nlopt.TrustRegion, nil
	case "limitedmemorybfgs", "lbfgs":
		return nlopt.LimitedMemoryBFGS, nil
	}
	return 0, fmt.Errorf("config: unknown method %q", name)
}

// ParseLineSearch maps a line-search name to its nlopt.LineSearch
// value, case-insensitively.
func ParseLineSearch(name string) (nlopt.LineSearch, error) {
	switch strings.ToLower(name) {
	case "armijo":
		return nlopt.Armijo, nil
	case "strongwolfe", "wolfe":
		return nlopt.StrongWolfe, nil
	case "goldensection", "golden":
		return nlopt.GoldenSectionLS, nil
	}
	return 0, fmt.Errorf("config: unknown line search %q", name)
}
