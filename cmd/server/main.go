package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/aigoflow/minivault/internal/backend"
	"github.com/aigoflow/minivault/internal/config"
	"github.com/aigoflow/minivault/internal/metrics"
	"github.com/aigoflow/minivault/internal/middleware"
	"github.com/aigoflow/minivault/internal/services"
	"github.com/aigoflow/minivault/internal/store"
	"github.com/aigoflow/minivault/pkg/server"
)

func main() {
	var envFile = flag.String("env", "", "Optional .env file to load")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Open the interaction journal
	journal, err := store.Open(cfg.LogPath)
	if err != nil {
		slog.Error("Failed to open interaction log", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	slog.Info("Server starting",
		"http_addr", cfg.HTTPAddr,
		"ollama_url", cfg.OllamaURL,
		"llama_url", cfg.LlamaURL,
		"log_path", cfg.LogPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the generation chain. Availability is probed once here; a backend
	// that comes up later is picked up on the next restart.
	remote := backend.NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.OllamaTimeout)
	local := backend.NewLlamaServer(cfg.LlamaURL, cfg.LlamaTimeout)
	terminal := backend.NewCanned()

	avail := backend.Detect(ctx, remote, local, cfg.ProbeTimeout)
	metrics.BackendAvailable.WithLabelValues("ollama").Set(gaugeValue(avail.RemoteDaemonReachable))
	metrics.BackendAvailable.WithLabelValues("llama_server").Set(gaugeValue(avail.LocalModelLoaded))

	dispatcher := backend.NewDispatcher(avail, remote, local, terminal)
	generateService := services.NewGenerateService(dispatcher, terminal, journal)

	// NATS transport is optional; with no NATS_URL the service is HTTP-only.
	var natsConn *nats.Conn
	if cfg.NatsURL != "" {
		natsService, err := services.NewNATSService(cfg, generateService)
		if err != nil {
			slog.Error("Failed to create NATS service", "error", err)
			os.Exit(1)
		}
		defer natsService.Close()

		if err := natsService.Start(ctx); err != nil {
			slog.Error("NATS service failed", "error", err)
			os.Exit(1)
		}
		natsConn = natsService.GetConnection()
	}

	healthService := services.NewHealthService(natsConn, cfg, avail)
	if err := healthService.Start(ctx); err != nil {
		slog.Error("Health service failed", "error", err)
		os.Exit(1)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateBurst)

	httpServer := server.NewServer(cfg.HTTPAddr, generateService, healthService, limiter)
	if err := httpServer.Start(ctx); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down server")
}

func gaugeValue(up bool) float64 {
	if up {
		return 1
	}
	return 0
}
