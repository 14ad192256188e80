// Package server exposes the operator endpoints: Prometheus metrics,
// aggregated health and liveness
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/config"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/http/middleware"
	"go.uber.org/zap"
)

// Server is the operator HTTP server
type Server struct {
	logger *zap.Logger
	router *chi.Mux
	server *http.Server
}

// NewServer routes health to healthPath, metrics to /metrics when metrics
// is non-nil, and liveness to /livez
func NewServer(cfg *config.MonitoringConfig, health http.Handler, metrics http.Handler, logger *zap.Logger) *Server {
	s := &Server{logger: logger.Named("ops-server")}
	s.router = s.setupRouter(cfg.HealthCheckPath, health, metrics)

	s.server = &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           s.router,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	return s
}

func (s *Server) setupRouter(healthPath string, health, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(10 * time.Second))

	if healthPath == "" {
		healthPath = "/healthz"
	}
	r.Method(http.MethodGet, healthPath, health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting operator server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down operator server")
	return s.server.Shutdown(ctx)
}
