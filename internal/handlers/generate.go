package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aigoflow/minivault/internal/models"
	"github.com/aigoflow/minivault/internal/services"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 1000
)

type GenerateHandler struct {
	generateService *services.GenerateService
	healthService   *services.HealthService
}

func NewGenerateHandler(generateService *services.GenerateService, healthService *services.HealthService) *GenerateHandler {
	return &GenerateHandler{
		generateService: generateService,
		healthService:   healthService,
	}
}

func (h *GenerateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleRoot)
	mux.HandleFunc("/generate", h.handleGenerate)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/logs", h.handleLogs)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type serviceCard struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (h *GenerateHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, serviceCard{
		Message: "MiniVault API",
		Version: "1.0.0",
		Endpoints: map[string]string{
			"generate": "/generate",
			"health":   "/health",
			"logs":     "/logs",
		},
	})
}

func (h *GenerateHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := services.ValidatePrompt(req.Prompt); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.generateService.ProcessGenerate(r.Context(), req.Prompt, "http")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Response: result.Response})
}

func (h *GenerateHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	writeJSON(w, http.StatusOK, h.healthService.Snapshot())
}

func (h *GenerateHandler) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	limit := defaultLogLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	logs, err := h.generateService.RecentInteractions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read interaction log")
		return
	}
	if logs == nil {
		logs = []models.InteractionRecord{}
	}

	writeJSON(w, http.StatusOK, logs)
}
