package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aigoflow/minivault/internal/backend"
	"github.com/aigoflow/minivault/internal/config"
)

const (
	healthSubject    = "minivault.health"
	heartbeatSubject = "minivault.heartbeat"
)

// HealthService reports the availability snapshot taken at startup. The
// flags never change while the process runs; only the timestamp moves.
type HealthService struct {
	nats     *nats.Conn
	config   *config.Config
	avail    backend.Availability
	instance string
}

type HealthStatus struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	LocalLLMAvailable bool   `json:"local_llm_available"`
	OllamaAvailable   bool   `json:"ollama_available"`
}

// heartbeatStatus is the health snapshot plus enough identity for a
// monitor to tell instances apart.
type heartbeatStatus struct {
	HealthStatus
	Instance string `json:"instance"`
	HTTPAddr string `json:"http_addr"`
	Subject  string `json:"subject"`
}

// NewHealthService creates the health reporter. natsConn may be nil, in
// which case only the HTTP surface is served.
func NewHealthService(natsConn *nats.Conn, cfg *config.Config, avail backend.Availability) *HealthService {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &HealthService{
		nats:     natsConn,
		config:   cfg,
		avail:    avail,
		instance: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
	}
}

func (h *HealthService) Snapshot() HealthStatus {
	return HealthStatus{
		Status:            "healthy",
		Timestamp:         time.Now().UTC().Format(time.RFC3339Nano),
		LocalLLMAvailable: h.avail.LocalModelLoaded,
		OllamaAvailable:   h.avail.RemoteDaemonReachable,
	}
}

// Start answers health requests over NATS and publishes periodic heartbeats.
// It is a no-op without a NATS connection.
func (h *HealthService) Start(ctx context.Context) error {
	if h.nats == nil {
		return nil
	}

	_, err := h.nats.Subscribe(healthSubject, func(msg *nats.Msg) {
		statusData, err := json.Marshal(h.Snapshot())
		if err != nil {
			slog.Error("Failed to marshal health status", "error", err)
			return
		}

		if err := msg.Respond(statusData); err != nil {
			slog.Error("Failed to respond to health check", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to health subject: %w", err)
	}

	slog.Info("Health service started", "subject", healthSubject)

	go h.publishHeartbeats(ctx)

	return nil
}

func (h *HealthService) heartbeat() heartbeatStatus {
	return heartbeatStatus{
		HealthStatus: h.Snapshot(),
		Instance:     h.instance,
		HTTPAddr:     h.config.HTTPAddr,
		Subject:      h.config.Subject,
	}
}

func (h *HealthService) publishHeartbeats(ctx context.Context) {
	// A non-positive interval means heartbeats are off; NewTicker would panic.
	if h.config.HeartbeatInterval <= 0 {
		slog.Info("Heartbeats disabled", "interval", h.config.HeartbeatInterval)
		return
	}

	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			statusData, err := json.Marshal(h.heartbeat())
			if err != nil {
				continue
			}

			if err := h.nats.Publish(heartbeatSubject, statusData); err != nil {
				slog.Warn("Failed to publish heartbeat", "error", err)
			}
		}
	}
}
