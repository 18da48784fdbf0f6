// Package server exposes a running optimization over HTTP for external
// monitoring: a health probe, a JSON view of the latest committed
// iteration, and Prometheus metrics. The server only ever reads
// atomically published snapshots, so it never blocks the solver loop
// and never observes half-committed state.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Realife-Brahmin/nlopt-core/metrics"
	"github.com/Realife-Brahmin/nlopt-core/nlopt"
)

// Server serves /healthz, /status, and /metrics for one optimization run.
type Server struct {
	pub        *nlopt.Publisher
	logger     *zap.Logger
	collectors *metrics.Collectors
	registry   *prometheus.Registry
	router     chi.Router
}

// New builds a Server reading from pub. A nil logger is replaced by a
// no-op logger; all routes stay functional.
func New(pub *nlopt.Publisher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	s := &Server{
		pub:        pub,
		logger:     logger,
		collectors: metrics.New(registry),
		registry:   registry,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler())
	s.router = r
	return s
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("telemetry server listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

// handleHealthz reports 200 once the first iteration has committed and
// 503 before that, so orchestrators can distinguish "starting" from
// "making progress".
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.pub.Load() == nil {
		http.Error(w, "no iteration committed yet", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.pub.Load()
	if snap == nil {
		http.Error(w, "no iteration committed yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("encoding status snapshot", zap.Error(err))
	}
}

// metricsHandler refreshes the gauges from the latest snapshot on every
// scrape, then serves the registry.
func (s *Server) metricsHandler() http.Handler {
	prom := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.collectors.Observe(s.pub.Load())
		prom.ServeHTTP(w, r)
	})
}
