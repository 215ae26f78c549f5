package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aigoflow/minivault/internal/models"
)

// Journal is the append-only interaction log. Every record becomes exactly
// one JSON line, written with a single write under the mutex so concurrent
// appends never interleave. Readers open their own descriptor and are safe
// against writers because lines land atomically via O_APPEND.
type Journal struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}

	return &Journal{f: f, path: path}, nil
}

// Record appends one interaction. The timestamp is the moment the request
// started, and the elapsed time is measured here from startedAt so every
// caller computes it the same way; negative clock skew is clamped to zero.
// genErr, when present, is stored as the record's error string; otherwise the
// field serializes as null.
func (j *Journal) Record(prompt, response string, startedAt time.Time, method string, genErr error) error {
	elapsed := time.Since(startedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	rec := models.InteractionRecord{
		Timestamp:        startedAt.UTC().Format(time.RFC3339Nano),
		Prompt:           prompt,
		Response:         response,
		ProcessingTimeMs: elapsed,
		Method:           method,
	}
	if genErr != nil {
		msg := genErr.Error()
		rec.Error = &msg
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	enc := json.NewEncoder(j.f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("journal: append record: %w", err)
	}
	return nil
}

// Tail returns up to n most recent records in chronological order. Lines
// that do not parse are skipped rather than failing the whole read, so one
// corrupt line cannot take down the history endpoint.
func (j *Journal) Tail(n int) ([]models.InteractionRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: open for read: %w", err)
	}
	defer f.Close()

	var recs []models.InteractionRecord
	reader := bufio.NewReader(f)
	for {
		line, readErr := reader.ReadString('\n')
		if len(line) > 0 {
			var rec models.InteractionRecord
			if err := json.Unmarshal([]byte(line), &rec); err == nil {
				recs = append(recs, rec)
				if len(recs) > n {
					recs = recs[1:]
				}
			}
		}
		if readErr != nil {
			break
		}
	}

	return recs, nil
}

func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}
