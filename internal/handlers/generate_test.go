package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aigoflow/minivault/internal/backend"
	"github.com/aigoflow/minivault/internal/config"
	"github.com/aigoflow/minivault/internal/models"
	"github.com/aigoflow/minivault/internal/services"
	"github.com/aigoflow/minivault/internal/store"
)

type fakeBackend struct {
	method backend.Method
	text   string
	err    error
}

func (f *fakeBackend) Name() string           { return string(f.method) }
func (f *fakeBackend) Method() backend.Method { return f.method }

func (f *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newTestMux(t *testing.T, avail backend.Availability, remote, local backend.Generator) (*http.ServeMux, *store.Journal) {
	t.Helper()

	journal, err := store.Open(filepath.Join(t.TempDir(), "log.jsonl"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	terminal := backend.NewCanned()
	dispatcher := backend.NewDispatcher(avail, remote, local, terminal)
	generateService := services.NewGenerateService(dispatcher, terminal, journal)
	healthService := services.NewHealthService(nil, &config.Config{HeartbeatInterval: time.Second}, avail)

	mux := http.NewServeMux()
	NewGenerateHandler(generateService, healthService).RegisterRoutes(mux)
	return mux, journal
}

func postGenerate(t *testing.T, mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestGenerateSuccess(t *testing.T) {
	remote := &fakeBackend{method: backend.MethodRemoteDaemon, text: "The capital of France is Paris."}
	mux, journal := newTestMux(t, backend.Availability{RemoteDaemonReachable: true}, remote, nil)

	w := postGenerate(t, mux, `{"prompt": "What is the capital of France?"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp generateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "The capital of France is Paris." {
		t.Errorf("response: got %q", resp.Response)
	}

	recs, err := journal.Tail(10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one journal record, got %d", len(recs))
	}
	if recs[0].Method != "remote_daemon" {
		t.Errorf("journaled method: got %q", recs[0].Method)
	}
	if recs[0].Error != nil {
		t.Errorf("clean interaction should journal a null error, got %q", *recs[0].Error)
	}
}

func TestGenerateResponseHasOnlyResponseField(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{}, nil, nil)

	w := postGenerate(t, mux, `{"prompt": "hello"}`)

	var raw map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(raw) != 1 {
		t.Errorf("wire response must carry exactly the response field, got %v", raw)
	}
	if _, ok := raw["response"]; !ok {
		t.Error("missing response field")
	}
}

func TestGenerateFallsBackWhenDaemonDies(t *testing.T) {
	// Reachable at startup, gone by request time.
	remote := &fakeBackend{method: backend.MethodRemoteDaemon, err: errors.New("ollama: request: connection refused")}
	mux, journal := newTestMux(t, backend.Availability{RemoteDaemonReachable: true}, remote, nil)

	w := postGenerate(t, mux, `{"prompt": "What is the capital of France?"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("degraded request must still answer 200, got %d", w.Code)
	}

	var resp generateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Response, "stubbed response to your question") {
		t.Errorf("expected the canned question template, got %q", resp.Response)
	}

	recs, _ := journal.Tail(1)
	if len(recs) != 1 {
		t.Fatal("expected one journal record")
	}
	if recs[0].Method != "fallback" {
		t.Errorf("journaled method: got %q, want fallback", recs[0].Method)
	}
	if recs[0].Error == nil || !strings.Contains(*recs[0].Error, "connection refused") {
		t.Errorf("journal should note the degradation, got %v", recs[0].Error)
	}
}

func TestGenerateRejectsInvalidJSON(t *testing.T) {
	mux, journal := newTestMux(t, backend.Availability{}, nil, nil)

	w := postGenerate(t, mux, `{oops`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "invalid JSON body") {
		t.Errorf("body: got %q", w.Body.String())
	}

	recs, _ := journal.Tail(10)
	if len(recs) != 0 {
		t.Errorf("rejected requests must not be journaled, got %d records", len(recs))
	}
}

func TestGenerateRejectsBadPrompts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing prompt", `{}`, "non-empty"},
		{"empty prompt", `{"prompt": ""}`, "non-empty"},
		{"whitespace prompt", `{"prompt": "   \n\t "}`, "non-empty"},
		{"oversized prompt", `{"prompt": "` + strings.Repeat("a", services.MaxPromptChars+1) + `"}`, "maximum length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, journal := newTestMux(t, backend.Availability{}, nil, nil)

			w := postGenerate(t, mux, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", w.Code, http.StatusBadRequest)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body: got %q, want it to mention %q", w.Body.String(), tt.want)
			}

			recs, _ := journal.Tail(10)
			if len(recs) != 0 {
				t.Errorf("rejected requests must not be journaled, got %d records", len(recs))
			}
		})
	}
}

func TestGenerateMethodNotAllowed(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/generate", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{RemoteDaemonReachable: true, LocalModelLoaded: false}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusOK)
	}

	var status services.HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("status field: got %q", status.Status)
	}
	if !status.OllamaAvailable || status.LocalLLMAvailable {
		t.Errorf("availability flags wrong: %+v", status)
	}
	if _, err := time.Parse(time.RFC3339Nano, status.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", status.Timestamp, err)
	}
}

func TestRootServiceCard(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusOK)
	}

	var card serviceCard
	if err := json.Unmarshal(w.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if card.Message != "MiniVault API" {
		t.Errorf("message: got %q", card.Message)
	}
	if card.Version != "1.0.0" {
		t.Errorf("version: got %q", card.Version)
	}
	if card.Endpoints["generate"] != "/generate" {
		t.Errorf("endpoints: got %v", card.Endpoints)
	}
}

func TestRootUnknownPathIs404(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestLogsEndpoint(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{}, nil, nil)

	postGenerate(t, mux, `{"prompt": "first prompt"}`)
	postGenerate(t, mux, `{"prompt": "second prompt"}`)

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusOK)
	}

	var recs []models.InteractionRecord
	if err := json.Unmarshal(w.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Prompt != "first prompt" || recs[1].Prompt != "second prompt" {
		t.Errorf("records out of order: %q, %q", recs[0].Prompt, recs[1].Prompt)
	}
}

func TestLogsEndpointLimit(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{}, nil, nil)

	postGenerate(t, mux, `{"prompt": "first prompt"}`)
	postGenerate(t, mux, `{"prompt": "second prompt"}`)

	req := httptest.NewRequest(http.MethodGet, "/logs?limit=1", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var recs []models.InteractionRecord
	if err := json.Unmarshal(w.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Prompt != "second prompt" {
		t.Errorf("limit should keep the most recent record, got %q", recs[0].Prompt)
	}
}

func TestLogsEndpointEmptyIsArray(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty history should encode as [], got %q", w.Body.String())
	}
}

func TestLogsEndpointInvalidLimit(t *testing.T) {
	mux, _ := newTestMux(t, backend.Availability{}, nil, nil)

	for _, limit := range []string{"abc", "0", "-5"} {
		req := httptest.NewRequest(http.MethodGet, "/logs?limit="+limit, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: got %d, want %d", limit, w.Code, http.StatusBadRequest)
		}
	}
}
