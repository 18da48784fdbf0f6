// Command nloptrun runs the solver against one of the built-in
// benchmark objectives, with the algorithm configuration taken from
// NLOPT_* environment variables. It exists so a containerized sweep can
// exercise the full stack (config overlay, progress output, telemetry
// server) without writing any Go.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Realife-Brahmin/nlopt-core/config"
	"github.com/Realife-Brahmin/nlopt-core/nlopt"
	"github.com/Realife-Brahmin/nlopt-core/objective"
	"github.com/Realife-Brahmin/nlopt-core/server"
	"github.com/Realife-Brahmin/nlopt-core/write"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.FromEnv(nlopt.DefaultConfig(nlopt.BFGS))
	if err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}

	obj, x0, err := selectObjective(os.Getenv("NLOPT_OBJECTIVE"), os.Getenv("NLOPT_X0"))
	if err != nil {
		logger.Fatal("selecting objective", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pub := &nlopt.Publisher{}
	if addr := os.Getenv("NLOPT_HTTP_ADDR"); addr != "" {
		srv := server.New(pub, logger)
		go func() {
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				logger.Error("telemetry server stopped", zap.Error(err))
			}
		}()
	}

	settings := write.DefaultWriteSettings()
	settings.Logger = logger

	problem := &nlopt.Problem{Objective: obj, X0: x0, Config: cfg}
	result, err := nlopt.Optimize(ctx, problem, settings, pub)
	if err != nil {
		logger.Fatal("optimization failed", zap.Error(err))
	}

	logger.Info("optimization finished",
		zap.Bool("converged", result.Converged),
		zap.String("status", result.StatusMessage),
		zap.Int("iterations", result.Iterations),
		zap.Int("function_evaluations", result.FunctionEvaluations),
		zap.Int("gradient_evaluations", result.GradientEvaluations),
		zap.Float64("f", result.F),
		zap.Float64s("x", result.X),
	)
}

// selectObjective resolves the benchmark objective by name and parses
// the starting point, falling back to each objective's customary start.
func selectObjective(name, x0Spec string) (objective.Func, []float64, error) {
	if name == "" {
		name = "rosenbrock"
	}
	var obj objective.Func
	var x0 []float64
	switch strings.ToLower(name) {
	case "rosenbrock":
		obj, x0 = rosenbrock, []float64{-1.2, 1.0}
	case "rastrigin":
		obj, x0 = rastrigin, []float64{0.3, 0.3}
	case "sphere":
		obj, x0 = sphere, []float64{1, 1, 1}
	default:
		return nil, nil, fmt.Errorf("unknown objective %q", name)
	}
	if x0Spec != "" {
		parsed, err := parseVector(x0Spec)
		if err != nil {
			return nil, nil, err
		}
		x0 = parsed
	}
	return obj, x0, nil
}

func parseVector(spec string) ([]float64, error) {
	parts := strings.Split(spec, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing x0 component %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func rosenbrock(x []float64, g []float64, mode objective.Mode) float64 {
	var sum float64
	if g != nil {
		for i := range g {
			g[i] = 0
		}
	}
	for i := 0; i < len(x)-1; i++ {
		d := x[i+1] - x[i]*x[i]
		sum += 100*d*d + (1-x[i])*(1-x[i])
	}
	if mode == objective.ValueAndGradient && g != nil {
		for i := 0; i < len(x)-1; i++ {
			d := x[i+1] - x[i]*x[i]
			g[i] += -400*d*x[i] - 2*(1-x[i])
			g[i+1] += 200 * d
		}
	}
	return sum
}

func rastrigin(x []float64, g []float64, mode objective.Mode) float64 {
	sum := 10 * float64(len(x))
	for _, xi := range x {
		sum += xi*xi - 10*math.Cos(2*math.Pi*xi)
	}
	if mode == objective.ValueAndGradient && g != nil {
		for i, xi := range x {
			g[i] = 2*xi + 20*math.Pi*math.Sin(2*math.Pi*xi)
		}
	}
	return sum
}

func sphere(x []float64, g []float64, mode objective.Mode) float64 {
	var sum float64
	for _, xi := range x {
		sum += xi * xi
	}
	if mode == objective.ValueAndGradient && g != nil {
		for i, xi := range x {
			g[i] = 2 * xi
		}
	}
	return sum
}
