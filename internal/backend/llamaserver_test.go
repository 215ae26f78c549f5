package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLlamaServerGenerate(t *testing.T) {
	prompt := "Once upon a time"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completion" {
			t.Errorf("expected /completion, got %s", r.URL.Path)
		}

		var req llamaCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		// 4 words of input plus the fixed margin.
		if req.NPredict != 54 {
			t.Errorf("n_predict: got %d, want %d", req.NPredict, 54)
		}
		if req.Temperature != 0.7 {
			t.Errorf("temperature: got %v, want 0.7", req.Temperature)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(llamaCompletionResponse{Content: prompt + " there was a fox. "})
	}))
	defer srv.Close()

	l := NewLlamaServer(srv.URL, 5*time.Second)

	got, err := l.Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "there was a fox." {
		t.Errorf("got %q, want %q", got, "there was a fox.")
	}
}

func TestLlamaServerGenerateNoEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(llamaCompletionResponse{Content: "  A standalone answer.  "})
	}))
	defer srv.Close()

	l := NewLlamaServer(srv.URL, 5*time.Second)

	got, err := l.Generate(context.Background(), "Say something")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "A standalone answer." {
		t.Errorf("got %q, want %q", got, "A standalone answer.")
	}
}

func TestLlamaServerGenerateOnlyEcho(t *testing.T) {
	prompt := "Repeat after me"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(llamaCompletionResponse{Content: prompt + "   "})
	}))
	defer srv.Close()

	l := NewLlamaServer(srv.URL, 5*time.Second)

	got, err := l.Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != noMeaningfulOutput {
		t.Errorf("got %q, want the placeholder response", got)
	}
}

func TestLlamaServerGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "loading model", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := NewLlamaServer(srv.URL, 5*time.Second)

	_, err := l.Generate(context.Background(), "hello")
	if err == nil {
		t.Error("expected error on 503 response, got nil")
	}
}

func TestLlamaServerProbe(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	l := NewLlamaServer(srv.URL, 1*time.Second)

	if !l.Probe(context.Background()) {
		t.Error("expected probe to succeed when server is up")
	}
	if gotPath != "/health" {
		t.Errorf("probe path: got %q, want %q", gotPath, "/health")
	}
}

func TestLlamaServerProbeDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	l := NewLlamaServer(srv.URL, 1*time.Second)

	if l.Probe(context.Background()) {
		t.Error("expected probe to fail when server is unreachable")
	}
}
