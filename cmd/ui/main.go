package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/aigoflow/minivault/pkg/client"
)

// UIServer serves the browser UI and proxies API calls so the page never
// has to deal with cross-origin requests.
type UIServer struct {
	api    *client.Client
	apiURL string
}

func NewUIServer(apiURL string) *UIServer {
	return &UIServer{
		api:    client.New(apiURL),
		apiURL: apiURL,
	}
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

func (s *UIServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	indexTmpl.Execute(w, map[string]string{"APIURL": s.apiURL})
}

func (s *UIServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	resp, err := s.api.Generate(r.Context(), req.Prompt)
	if err != nil {
		writeUIError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *UIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.api.Health(r.Context())
	if err != nil {
		writeUIError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (s *UIServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.api.Logs(r.Context(), limit)
	if err != nil {
		writeUIError(w, http.StatusBadGateway, err)
		return
	}
	if records == nil {
		records = []client.InteractionRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func writeUIError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func main() {
	var (
		apiURL   = flag.String("api", "http://localhost:8000", "MiniVault API base URL")
		httpAddr = flag.String("addr", ":7860", "HTTP listen address")
	)
	flag.Parse()

	server := NewUIServer(*apiURL)

	http.HandleFunc("/", server.handleIndex)
	http.HandleFunc("/api/generate", server.handleGenerate)
	http.HandleFunc("/api/health", server.handleHealth)
	http.HandleFunc("/api/logs", server.handleLogs)

	fmt.Printf("🚀 Starting MiniVault UI on http://localhost%s\n", *httpAddr)
	fmt.Printf("🔗 Proxying MiniVault API at %s\n", *apiURL)

	log.Fatal(http.ListenAndServe(*httpAddr, nil))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>MiniVault API Interface</title>
    <meta charset="utf-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .header { text-align: center; padding: 20px; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; border-radius: 10px; margin-bottom: 20px; }
        .header p { margin: 5px 0 0 0; opacity: 0.9; }
        .status { padding: 10px; border-radius: 5px; margin-bottom: 15px; font-weight: bold; }
        .status-healthy { background-color: #d4edda; color: #155724; border: 1px solid #c3e6cb; }
        .status-error { background-color: #f8d7da; color: #721c24; border: 1px solid #f5c6cb; }
        .panel { background: white; border: 1px solid #e0e0e0; border-radius: 10px; padding: 20px; margin-bottom: 20px; }
        .panel h3 { margin-top: 0; }
        .columns { display: flex; gap: 20px; }
        .column { flex: 1; }
        label { display: block; margin-bottom: 5px; font-weight: 600; color: #333; font-size: 0.9em; }
        textarea { width: 100%; padding: 12px; border: 1px solid #d0d0d0; border-radius: 8px; font-family: inherit; font-size: 14px; box-sizing: border-box; resize: vertical; }
        textarea:focus { outline: none; border-color: #667eea; box-shadow: 0 0 0 2px rgba(102, 126, 234, 0.15); }
        button { background: #667eea; color: white; padding: 10px 20px; border: none; border-radius: 8px; cursor: pointer; font-weight: 600; margin-right: 8px; margin-top: 12px; }
        button:hover { background: #5a6fd6; }
        button:disabled { background: #999; cursor: not-allowed; }
        .metrics-row { display: flex; gap: 12px; margin-top: 12px; }
        .metric { flex: 1; }
        .metric .value { padding: 8px 12px; background: #f8f8f8; border: 1px solid #e0e0e0; border-radius: 6px; font-size: 0.9em; color: #333; }
        .example { background: #f8f8f8; color: #333; border: 1px solid #d0d0d0; font-weight: normal; margin: 0 0 8px 0; display: block; width: 100%; text-align: left; }
        .example:hover { background: #eee; }
        pre { background: #fafafa; border: 1px solid #e0e0e0; border-radius: 8px; padding: 12px; overflow-x: auto; font-size: 0.85em; white-space: pre-wrap; margin: 12px 0 0 0; }
        details summary { cursor: pointer; font-weight: 600; }
        .footer { text-align: center; color: #666; font-size: 14px; padding: 10px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>🔐 MiniVault API Interface</h1>
        <p>Local text generation with logging capabilities</p>
    </div>

    <div id="status" class="status">Checking API status...</div>

    <div class="panel">
        <div class="columns">
            <div class="column">
                <label for="promptInput">Enter your prompt</label>
                <textarea id="promptInput" rows="5" placeholder="Type your message here..."></textarea>
                <div>
                    <button id="generateButton" onclick="generate()">Generate</button>
                    <button onclick="clearAll()">Clear</button>
                    <button onclick="refreshStatus()">Refresh Status</button>
                </div>
            </div>
            <div class="column">
                <label for="responseOutput">Generated response</label>
                <textarea id="responseOutput" rows="5" readonly></textarea>
                <div class="metrics-row">
                    <div class="metric">
                        <label>Processing Time</label>
                        <div class="value" id="procTime">Not processed yet</div>
                    </div>
                    <div class="metric">
                        <label>Method</label>
                        <div class="value" id="genMethod">Unknown</div>
                    </div>
                </div>
            </div>
        </div>
    </div>

    <div class="panel">
        <h3>Example Prompts</h3>
        <button class="example" onclick="setPrompt('Hello, how are you today?')">Hello, how are you today?</button>
        <button class="example" onclick="setPrompt('What is the meaning of life?')">What is the meaning of life?</button>
        <button class="example" onclick="setPrompt('Write a short story about a robot.')">Write a short story about a robot.</button>
        <button class="example" onclick="setPrompt('Explain quantum computing in simple terms.')">Explain quantum computing in simple terms.</button>
        <button class="example" onclick="setPrompt('Create a recipe for chocolate chip cookies.')">Create a recipe for chocolate chip cookies.</button>
    </div>

    <div class="panel">
        <details>
            <summary>Recent Interactions</summary>
            <pre id="logsOutput">No logs loaded yet.</pre>
            <button onclick="refreshLogs()">Refresh Logs</button>
        </details>
    </div>

    <div class="footer">
        <p>MiniVault API - Local text generation with comprehensive logging</p>
        <p>Running locally | No cloud APIs | Full logging</p>
    </div>

    <script>
        function setPrompt(text) {
            document.getElementById('promptInput').value = text;
        }

        function clearAll() {
            document.getElementById('promptInput').value = '';
            document.getElementById('responseOutput').value = '';
            document.getElementById('procTime').textContent = 'Not processed yet';
            document.getElementById('genMethod').textContent = 'Unknown';
        }

        function methodLabel(health) {
            if (health.ollama_available) { return 'ollama'; }
            if (health.local_llm_available) { return 'local model'; }
            return 'fallback';
        }

        async function refreshStatus() {
            const banner = document.getElementById('status');
            try {
                const resp = await fetch('/api/health');
                if (!resp.ok) {
                    banner.className = 'status status-error';
                    banner.textContent = 'API returned error: ' + resp.status;
                    return;
                }
                const health = await resp.json();
                let note = 'canned responses only';
                if (health.ollama_available) {
                    note = 'Ollama available';
                } else if (health.local_llm_available) {
                    note = 'local model loaded';
                }
                banner.className = 'status status-healthy';
                banner.innerHTML = 'API is healthy and running | ' + note +
                    '<br><small>Last checked: ' + health.timestamp + '</small>';
            } catch (err) {
                banner.className = 'status status-error';
                banner.innerHTML = 'Cannot connect to MiniVault API ({{.APIURL}})' +
                    '<br><small>Start it with: go run ./cmd/server</small>';
            }
        }

        async function generate() {
            const prompt = document.getElementById('promptInput').value;
            const output = document.getElementById('responseOutput');

            if (!prompt.trim()) {
                output.value = 'Please enter a prompt first.';
                return;
            }

            const button = document.getElementById('generateButton');
            button.disabled = true;
            button.textContent = 'Generating...';
            const started = performance.now();

            try {
                const resp = await fetch('/api/generate', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({ prompt: prompt })
                });
                const elapsed = Math.round(performance.now() - started);
                const result = await resp.json();

                document.getElementById('procTime').textContent = elapsed + 'ms';

                if (result.error) {
                    output.value = 'Error: ' + result.error;
                    document.getElementById('genMethod').textContent = 'error';
                } else {
                    output.value = result.response;
                    const health = await fetch('/api/health')
                        .then(function(r) { return r.json(); })
                        .catch(function() { return null; });
                    document.getElementById('genMethod').textContent =
                        health ? methodLabel(health) : 'unknown';
                }
                refreshLogs();
            } catch (err) {
                output.value = 'Network error: ' + err.message;
                document.getElementById('genMethod').textContent = 'error';
            } finally {
                button.disabled = false;
                button.textContent = 'Generate';
            }
        }

        function clip(text) {
            if (!text) { return ''; }
            if (text.length <= 50) { return text; }
            return text.slice(0, 50) + '...';
        }

        async function refreshLogs() {
            const out = document.getElementById('logsOutput');
            try {
                const resp = await fetch('/api/logs?limit=10');
                if (!resp.ok) {
                    out.textContent = 'Error reading logs: status ' + resp.status;
                    return;
                }
                const records = await resp.json();
                if (!records || records.length === 0) {
                    out.textContent = 'No logs available yet. Make some requests to see logs here.';
                    return;
                }
                const lines = [];
                records.forEach(function(rec) {
                    lines.push('[' + rec.timestamp + '] ' + rec.method + ' (' + rec.processing_time_ms + 'ms)');
                    lines.push('  Prompt: ' + clip(rec.prompt));
                    lines.push('  Response: ' + clip(rec.response));
                    lines.push('');
                });
                out.textContent = lines.join('\n');
            } catch (err) {
                out.textContent = 'Error reading logs: ' + err.message;
            }
        }

        document.addEventListener('DOMContentLoaded', function() {
            refreshStatus();
            refreshLogs();
        });

        document.getElementById('promptInput').addEventListener('keydown', function(e) {
            if (e.key === 'Enter' && !e.shiftKey) {
                e.preventDefault();
                generate();
            }
        });
    </script>
</body>
</html>`
