// Package metrics bundles the Prometheus collectors a long-running
// optimization job exposes: iteration and evaluation counters plus
// gauges for the quantities a dashboard actually watches (objective
// value, gradient norm, trust-region radius).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Realife-Brahmin/nlopt-core/nlopt"
)

const namespace = "nlopt"

// Collectors holds the metric instances for one optimization run.
type Collectors struct {
	Iterations          prometheus.Gauge
	FunctionEvaluations prometheus.Gauge
	GradientEvaluations prometheus.Gauge
	ObjectiveValue      prometheus.Gauge
	GradientNorm        prometheus.Gauge
	TrustRegionRadius   prometheus.Gauge
	Done                prometheus.Gauge
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Iterations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Committed solver iterations.",
		}),
		FunctionEvaluations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "function_evaluations_total",
			Help:      "Cumulative objective evaluations.",
		}),
		GradientEvaluations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gradient_evaluations_total",
			Help:      "Cumulative gradient evaluations.",
		}),
		ObjectiveValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "objective_value",
			Help:      "Objective value at the latest committed iterate.",
		}),
		GradientNorm: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gradient_norm",
			Help:      "Euclidean gradient norm at the latest committed iterate.",
		}),
		TrustRegionRadius: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trust_region_radius",
			Help:      "Current trust-region radius; zero outside the TrustRegion method.",
		}),
		Done: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_done",
			Help:      "1 once the run has terminated.",
		}),
	}
	reg.MustRegister(
		c.Iterations, c.FunctionEvaluations, c.GradientEvaluations,
		c.ObjectiveValue, c.GradientNorm, c.TrustRegionRadius, c.Done,
	)
	return c
}

// Observe copies one published snapshot into the gauges. A nil snapshot
// (no iteration committed yet) is a no-op.
func (c *Collectors) Observe(s *nlopt.Snapshot) {
	if s == nil {
		return
	}
	c.Iterations.Set(float64(s.Iter))
	c.FunctionEvaluations.Set(float64(s.FunctionEvaluations))
	c.GradientEvaluations.Set(float64(s.GradientEvaluations))
	c.ObjectiveValue.Set(s.F)
	c.GradientNorm.Set(s.GradNorm)
	if s.Method == "TrustRegion" {
		c.TrustRegionRadius.Set(s.Delta)
	}
	if s.Done {
		c.Done.Set(1)
	}
}
