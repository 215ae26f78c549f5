package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// noMeaningfulOutput is returned when the model produces nothing beyond the
// prompt itself.
const noMeaningfulOutput = "I understand your prompt, but I couldn't generate a meaningful response."

// LlamaServer generates text through a llama-server process on loopback,
// using the native /completion endpoint. Small local models tend to echo the
// prompt back, so Generate strips a leading copy of it from the output.
type LlamaServer struct {
	BaseURL string
	Client  *http.Client
}

func NewLlamaServer(baseURL string, timeout time.Duration) *LlamaServer {
	return &LlamaServer{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type llamaCompletionRequest struct {
	Prompt      string  `json:"prompt"`
	NPredict    int     `json:"n_predict"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

type llamaCompletionResponse struct {
	Content string `json:"content"`
}

func (l *LlamaServer) Name() string {
	return "llama-server"
}

func (l *LlamaServer) Method() Method {
	return MethodLocalModel
}

func (l *LlamaServer) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := llamaCompletionRequest{
		Prompt:      prompt,
		NPredict:    len(strings.Fields(prompt)) + 50,
		Temperature: 0.7,
		Stream:      false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llama-server: marshal request: %w", err)
	}

	url := strings.TrimRight(l.BaseURL, "/") + "/completion"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llama-server: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llama-server: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llama-server: unexpected status %d", resp.StatusCode)
	}

	var compResp llamaCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&compResp); err != nil {
		return "", fmt.Errorf("llama-server: decode response: %w", err)
	}

	text := compResp.Content
	if strings.HasPrefix(text, prompt) {
		text = text[len(prompt):]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = noMeaningfulOutput
	}

	return text, nil
}

// Probe reports whether llama-server is up with a model loaded.
func (l *LlamaServer) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(l.BaseURL, "/")+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
