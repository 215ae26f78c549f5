package models

// InteractionRecord is one line of the append-only interaction log.
// Field order matches the on-disk JSON object; Error is a pointer so a
// clean interaction serializes as "error": null rather than being omitted.
type InteractionRecord struct {
	Timestamp        string  `json:"timestamp"`
	Prompt           string  `json:"prompt"`
	Response         string  `json:"response"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	Method           string  `json:"method"`
	Error            *string `json:"error"`
}
