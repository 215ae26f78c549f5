package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aigoflow/minivault/internal/handlers"
	"github.com/aigoflow/minivault/internal/middleware"
	"github.com/aigoflow/minivault/internal/services"
)

type Server struct {
	httpAddr        string
	generateService *services.GenerateService
	healthService   *services.HealthService
	limiter         *middleware.RateLimiter
}

func NewServer(httpAddr string, generateService *services.GenerateService, healthService *services.HealthService, limiter *middleware.RateLimiter) *Server {
	return &Server{
		httpAddr:        httpAddr,
		generateService: generateService,
		healthService:   healthService,
		limiter:         limiter,
	}
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	generateHandler := handlers.NewGenerateHandler(s.generateService, s.healthService)
	generateHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	slog.Info("HTTP server starting",
		"addr", s.httpAddr,
		"endpoints", []string{"/", "/generate", "/health", "/logs", "/metrics"})

	srv := &http.Server{
		Addr:    s.httpAddr,
		Handler: middleware.Chain(mux, s.limiter),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
