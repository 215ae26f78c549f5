package client

// GenerateRequest is the wire form of a generate call. ReqID and ReplyTo are
// only used by the NATS transport; the HTTP endpoint takes just the prompt.
type GenerateRequest struct {
	ReqID   string `json:"req_id,omitempty"`
	Prompt  string `json:"prompt"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// GenerateResponse is the HTTP endpoint's response body.
type GenerateResponse struct {
	Response string `json:"response"`
}

// GenerateReply is the NATS transport's response payload.
type GenerateReply struct {
	ReqID      string `json:"req_id"`
	Response   string `json:"response"`
	Method     string `json:"method"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// HealthStatus mirrors the service's health payload.
type HealthStatus struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	LocalLLMAvailable bool   `json:"local_llm_available"`
	OllamaAvailable   bool   `json:"ollama_available"`
}

// InteractionRecord mirrors one line of the service's interaction log.
type InteractionRecord struct {
	Timestamp        string  `json:"timestamp"`
	Prompt           string  `json:"prompt"`
	Response         string  `json:"response"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	Method           string  `json:"method"`
	Error            *string `json:"error"`
}
