package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/aigoflow/minivault/internal/config"
)

// GenerateRequest is the NATS wire form of a generate call. ReplyTo is used
// when the requester cannot rely on the transport's reply subject.
type GenerateRequest struct {
	ReqID   string `json:"req_id"`
	Prompt  string `json:"prompt"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type GenerateResponse struct {
	ReqID      string `json:"req_id"`
	Response   string `json:"response"`
	Method     string `json:"method"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// NATSService exposes the generate operation over a queue group, so several
// MiniVault processes can share one subject. Concurrency per process is
// bounded by a semaphore.
type NATSService struct {
	conn    *nats.Conn
	service *GenerateService
	cfg     *config.Config
	sem     chan struct{}
}

func NewNATSService(cfg *config.Config, service *GenerateService) (*NATSService, error) {
	conn, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &NATSService{
		conn:    conn,
		service: service,
		cfg:     cfg,
		sem:     make(chan struct{}, concurrency),
	}, nil
}

func (s *NATSService) Start(ctx context.Context) error {
	_, err := s.conn.QueueSubscribe(s.cfg.Subject, s.cfg.QueueGroup, func(msg *nats.Msg) {
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		go func() {
			defer func() { <-s.sem }()
			s.processMessage(ctx, msg)
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Subject, err)
	}

	slog.Info("NATS service started",
		"subject", s.cfg.Subject,
		"queue_group", s.cfg.QueueGroup,
		"concurrency", cap(s.sem))

	return nil
}

func (s *NATSService) processMessage(ctx context.Context, msg *nats.Msg) {
	var req GenerateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		slog.Error("Failed to parse generate request", "error", err, "data", string(msg.Data))
		return
	}

	// Prefer the transport reply subject, fall back to the payload's.
	replyTo := msg.Reply
	if replyTo == "" {
		replyTo = req.ReplyTo
	}

	resp := GenerateResponse{ReqID: req.ReqID}

	if err := ValidatePrompt(req.Prompt); err != nil {
		resp.Error = err.Error()
	} else {
		result, err := s.service.ProcessGenerate(ctx, req.Prompt, fmt.Sprintf("nats.%s", msg.Subject))
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Response = result.Response
			resp.Method = string(result.Method)
			resp.DurationMs = result.DurationMs
		}
	}

	if replyTo == "" {
		slog.Warn("Generate request without reply subject", "req_id", req.ReqID)
		return
	}

	responseData, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal response", "req_id", req.ReqID, "error", err)
		return
	}

	if err := s.conn.Publish(replyTo, responseData); err != nil {
		slog.Error("Failed to publish response",
			"req_id", req.ReqID,
			"reply_subject", replyTo,
			"error", err)
	}
}

func (s *NATSService) Close() error {
	if s.conn != nil {
		return s.conn.Drain()
	}
	return nil
}

func (s *NATSService) GetConnection() *nats.Conn {
	return s.conn
}
