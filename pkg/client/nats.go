package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

const defaultGenerateSubject = "minivault.generate.request"

// NATSClient talks to a MiniVault service over NATS.
type NATSClient struct {
	conn     *nats.Conn
	clientID string
	subject  string
	timeout  time.Duration
}

func NewNATSClient(natsURL, clientID string) (*NATSClient, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if clientID == "" {
		clientID = "minivault-client"
	}

	return &NATSClient{
		conn:     conn,
		clientID: clientID,
		subject:  defaultGenerateSubject,
		timeout:  180 * time.Second,
	}, nil
}

// SetSubject overrides the generate subject for services running with a
// non-default NATS_SUBJECT.
func (c *NATSClient) SetSubject(subject string) {
	c.subject = subject
}

// SetTimeout configures the reply wait.
func (c *NATSClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Generate publishes a generate request and waits for the reply. The reply
// subject is subscribed before publishing so a fast worker cannot answer
// into the void.
func (c *NATSClient) Generate(ctx context.Context, prompt string) (*GenerateReply, error) {
	reqID := ulid.Make().String()
	replySubject := fmt.Sprintf("minivault.generate.reply.%s.%s", c.clientID, reqID)

	request := GenerateRequest{
		ReqID:   reqID,
		Prompt:  prompt,
		ReplyTo: replySubject,
	}

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	replyChan := make(chan *nats.Msg, 1)
	sub, err := c.conn.Subscribe(replySubject, func(msg *nats.Msg) {
		replyChan <- msg
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to reply: %w", err)
	}
	defer sub.Unsubscribe()

	if err := c.conn.Publish(c.subject, requestBytes); err != nil {
		return nil, fmt.Errorf("failed to publish request: %w", err)
	}

	slog.Debug("Published generate request",
		"subject", c.subject,
		"req_id", reqID,
		"reply_subject", replySubject)

	select {
	case msg := <-replyChan:
		var reply GenerateReply
		if err := json.Unmarshal(msg.Data, &reply); err != nil {
			return nil, fmt.Errorf("failed to parse reply: %w", err)
		}
		return &reply, nil

	case <-time.After(c.timeout):
		return nil, fmt.Errorf("request timeout after %v", c.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CheckHealth asks the service for its availability snapshot.
func (c *NATSClient) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	msg, err := c.conn.RequestWithContext(ctx, "minivault.health", nil)
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}

	var health HealthStatus
	if err := json.Unmarshal(msg.Data, &health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	return &health, nil
}

func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
