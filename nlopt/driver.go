package nlopt

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Realife-Brahmin/nlopt-core/direction"
	"github.com/Realife-Brahmin/nlopt-core/linesearch"
	"github.com/Realife-Brahmin/nlopt-core/objective"
	"github.com/Realife-Brahmin/nlopt-core/status"
	"github.com/Realife-Brahmin/nlopt-core/tolerance"
	"github.com/Realife-Brahmin/nlopt-core/trustregion"
	"github.com/Realife-Brahmin/nlopt-core/write"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Optimize runs the iteration loop to completion (or until ctx is
// cancelled) and returns the result bundle. The Problem value carries
// everything the loop needs; nothing is read from package-level state,
// and nothing here is safe to call concurrently on the same Problem.
//
// progressSettings and pub are both optional; a nil progressSettings
// disables progress output, and a nil pub disables telemetry
// publication. ctx is only consulted between iterations, so a cancelled
// context never observes a half-committed history.
func Optimize(ctx context.Context, problem *Problem, progressSettings *write.Settings, pub *Publisher) (*Result, error) {
	cfg := problem.Config
	if cfg == nil {
		cfg = DefaultConfig(GradientDescent)
	}
	n := len(problem.X0)
	if err := cfg.Validate(n); err != nil {
		return nil, fmt.Errorf("nlopt: %w", err)
	}

	adapter := objective.New(problem.Objective, problem.Params, n)

	x := append([]float64{}, problem.X0...)
	f, g, err := adapter.ValueGrad(0, x)
	if err != nil {
		return &Result{
			Status:        status.NonFiniteValue,
			StatusMessage: err.Error(),
			Causes:        []string{status.NonFiniteValue.String()},
			Config:        *cfg,
		}, err
	}

	xPrev := append([]float64{}, x...)
	fPrev := f
	gPrev := append([]float64{}, g...)

	// ngTol holds the gradient norm across iterations: its stored value
	// at the top of an iteration is |g_prev|, and after the current
	// norm is added it is |g|. dfTol and dxTol hold the already-computed
	// deltas |f - f_prev| and |x - x_prev| the same way.
	ngTol := &tolerance.Toler{}
	ngTol.Init(cfg.NGTol, -1, 0, objective.GradientNorm(g))
	dfTol := &tolerance.Toler{}
	dfTol.Init(cfg.DFTol, -1, 0, 0)
	dxTol := &tolerance.Toler{}
	dxTol.Init(cfg.DXTol, -1, 0, 0)

	gd := direction.GradientDescent{}
	cg := direction.NewConjugateGradient()
	bfgs := direction.NewBFGS(n)
	lbfgs := direction.NewLBFGS(n, cfg.LBFGSMemory)
	if cfg.Method == BFGS {
		bfgs.Init(f)
	}

	var trHessian *mat.Dense
	delta := cfg.Delta0
	if cfg.Method == TrustRegion {
		trHessian = trustregion.Identity(n, f)
	}

	lsSettings := cfg.linesearchSettings()
	trSettings := cfg.trustRegionSettings()

	var sink *write.Sink
	if progressSettings != nil && cfg.Progress > 0 {
		var sinkErr error
		sink, sinkErr = write.NewSink(progressSettings)
		if sinkErr != nil {
			return nil, fmt.Errorf("nlopt: %w", sinkErr)
		}
	}

	var hist history
	var warnings []string
	restarted := false
	lsRetried := false

	warn := func(msg string) {
		warnings = append(warnings, msg)
		progressSettings.Warn(msg)
	}

	// stop commits the final progress row and snapshot before building
	// the result, so a terminated run always reports its last state.
	stop := func(st status.Status) (*Result, error) {
		if sink != nil {
			sink.Row(len(hist.records), f)
		}
		if pub != nil {
			pub.Publish(&Snapshot{
				Iter: len(hist.records), F: f, GradNorm: objective.GradientNorm(g), Delta: delta,
				FunctionEvaluations: adapter.FunctionEvaluations(),
				GradientEvaluations: adapter.GradientEvaluations(),
				Method:              cfg.Method.String(), Done: true, Status: st.String(),
			})
		}
		res := &Result{
			Converged:           st.Converged(),
			Status:              st,
			StatusMessage:       st.String(),
			Causes:              []string{st.String()},
			Records:             hist.trimmed(),
			X:                   x,
			F:                   f,
			G:                   g,
			FunctionEvaluations: adapter.FunctionEvaluations(),
			GradientEvaluations: adapter.GradientEvaluations(),
			Warnings:            warnings,
			Config:              *cfg,
		}
		if len(res.Records) > 0 {
			res.Iterations = res.Records[len(res.Records)-1].Iter
		}
		return res, nil
	}

	for iter := 1; ; iter++ {
		select {
		case <-ctx.Done():
			res, _ := stop(status.Continue)
			return res, ctx.Err()
		default:
		}

		if ngTol.AbsConverged() {
			return stop(status.GradPrevTol)
		}
		gNorm := objective.GradientNorm(g)
		ngTol.Add(gNorm)
		if ngTol.AbsConverged() {
			return stop(status.GradTol)
		}

		suppressConvergence := iter == 1 || restarted || cfg.Method == TrustRegion
		if !suppressConvergence {
			dfTol.Add(math.Abs(f - fPrev))
			if dfTol.AbsConverged() {
				return stop(status.ObjChangeTol)
			}
			dxTol.Add(floats.Distance(x, xPrev, 2))
			if dxTol.AbsConverged() {
				return stop(status.IterateChangeTol)
			}
		}

		if cfg.MaxIter > 0 && iter >= cfg.MaxIter {
			return stop(status.MaximumIterations)
		}
		if cfg.Method == TrustRegion && delta < cfg.DeltaTol {
			return stop(status.TrustRegionRadiusTol)
		}

		restarted = false
		record := Record{Iter: iter, Alpha: math.NaN(), Delta: math.NaN()}

		switch cfg.Method {
		case TrustRegion:
			res, err := trustregion.Step(adapter, iter, x, f, g, trHessian, delta, trSettings)
			if err != nil {
				return stop(status.NonFiniteValue)
			}
			delta = res.Delta
			record.Delta = delta
			record.Rho = res.Rho
			record.LineSearchEvals = res.Evals
			if res.Accepted {
				s := diff(res.X, x)
				y := diff(res.G, g)
				var reset bool
				trHessian, reset = trustregion.UpdateHessian(trHessian, s, y, res.F)
				if reset {
					warn("trust-region model Hessian reset after curvature failure")
				}
				xPrev, fPrev, gPrev = x, f, g
				x, f, g = res.X, res.F, res.G
			}
			record.X, record.F, record.G = x, f, g
			record.GradNorm = objective.GradientNorm(g)

		default:
			p, err := directionFor(cfg.Method, gd, cg, bfgs, lbfgs, g, gPrev)
			if err != nil {
				return nil, err
			}
			var res *linesearch.Result
			var lsErr error
			switch cfg.LineSearch {
			case StrongWolfe:
				res, lsErr = linesearch.StrongWolfe(adapter, iter, x, p, f, g, lsSettings)
			case GoldenSectionLS:
				res, lsErr = goldenSection(adapter, iter, x, p, f, lsSettings)
			default:
				res, lsErr = linesearch.Armijo(adapter, iter, x, p, f, g, lsSettings)
			}
			if lsErr != nil {
				var nonFinite *objective.NonFiniteError
				if errors.As(lsErr, &nonFinite) {
					return stop(status.NonFiniteValue)
				}
				if cfg.Method == ConjugateGradient && !lsRetried {
					// One retry from a fresh steepest-descent direction
					// before giving up on the whole run.
					cg.Reset()
					lsRetried = true
					restarted = true
					iter--
					continue
				}
				return stop(status.LineSearchFailure)
			}
			lsRetried = false

			s := diff(res.X, x)
			y := diff(res.G, g)
			xPrev, fPrev, gPrev = x, f, g
			x, f, g = res.X, res.F, res.G

			switch cfg.Method {
			case BFGS:
				if reset := bfgs.Update(s, y, f); reset {
					warn("BFGS inverse Hessian reset after curvature failure")
				}
			case LimitedMemoryBFGS:
				lbfgs.Record(s, y)
			case ConjugateGradient:
				restarted = cg.JustRestarted
			}

			record.Alpha = res.Alpha
			record.LineSearchEvals = res.Evals
			record.X, record.F, record.G = x, f, g
			record.GradNorm = objective.GradientNorm(g)
			record.Restarted = restarted
		}

		hist.push(record)
		if sink != nil && iter%cfg.Progress == 0 {
			if err := sink.Row(iter, f); err != nil {
				return nil, fmt.Errorf("nlopt: %w", err)
			}
		}
		if pub != nil {
			pub.Publish(&Snapshot{
				Iter: iter, F: f, GradNorm: record.GradNorm, Delta: delta,
				FunctionEvaluations: adapter.FunctionEvaluations(),
				GradientEvaluations: adapter.GradientEvaluations(),
				Method:              cfg.Method.String(), Done: false, Status: status.Continue.String(),
			})
		}
	}
}

func directionFor(m Method, gd direction.GradientDescent, cg *direction.ConjugateGradient, bfgs *direction.BFGS, lbfgs *direction.LBFGS, g, gPrev []float64) ([]float64, error) {
	switch m {
	case GradientDescent:
		return gd.Direction(g), nil
	case ConjugateGradient:
		return cg.Direction(g, gPrev), nil
	case BFGS:
		return bfgs.Direction(g), nil
	case LimitedMemoryBFGS:
		return lbfgs.Direction(g), nil
	default:
		return nil, fmt.Errorf("nlopt: unsupported method %v for direction oracle", m)
	}
}

// goldenSection is the derivative-free step-length fallback for
// GradientDescent: bracket by doubling, then narrow with golden-section
// ratios instead of interpolation. Useful when the caller trusts the
// gradient for the direction but not for the step-length decision.
func goldenSection(adapter *objective.Adapter, iter int, x, p []float64, f float64, s *linesearch.Settings) (*linesearch.Result, error) {
	const gold = 0.618033988749895
	lo, hi := 0.0, s.Lambda0
	evals := 0
	for {
		xt := trialPoint(x, p, hi)
		ft, err := adapter.Value(iter, xt)
		evals++
		if err != nil {
			return nil, err
		}
		if ft > f {
			break
		}
		lo = hi
		hi *= 2
		if hi > s.LambdaMax {
			hi = s.LambdaMax
			break
		}
	}

	a1 := hi - gold*(hi-lo)
	a2 := lo + gold*(hi-lo)
	f1, err := adapter.Value(iter, trialPoint(x, p, a1))
	evals++
	if err != nil {
		return nil, err
	}
	f2, err := adapter.Value(iter, trialPoint(x, p, a2))
	evals++
	if err != nil {
		return nil, err
	}

	for i := 0; i < s.MaxZoomIter && hi-lo > s.ZoomTol; i++ {
		if f1 < f2 {
			hi, a2, f2 = a2, a1, f1
			a1 = hi - gold*(hi-lo)
			f1, err = adapter.Value(iter, trialPoint(x, p, a1))
			evals++
		} else {
			lo, a1, f1 = a1, a2, f2
			a2 = lo + gold*(hi-lo)
			f2, err = adapter.Value(iter, trialPoint(x, p, a2))
			evals++
		}
		if err != nil {
			return nil, err
		}
	}

	alpha := (lo + hi) / 2
	if alpha < s.MinStep {
		return nil, linesearch.ErrFailed
	}
	xt := trialPoint(x, p, alpha)
	fNew, gNew, err := adapter.ValueGrad(iter, xt)
	evals++
	if err != nil {
		return nil, err
	}
	return &linesearch.Result{Alpha: alpha, X: xt, F: fNew, G: gNew, Evals: evals}, nil
}

func trialPoint(x, p []float64, alpha float64) []float64 {
	xt := make([]float64, len(x))
	for i := range xt {
		xt[i] = x[i] + alpha*p[i]
	}
	return xt
}

func diff(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] - b[i]
	}
	return out
}
