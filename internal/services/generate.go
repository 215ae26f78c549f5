package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aigoflow/minivault/internal/backend"
	"github.com/aigoflow/minivault/internal/metrics"
	"github.com/aigoflow/minivault/internal/models"
	"github.com/aigoflow/minivault/internal/store"
)

// MaxPromptChars bounds the accepted prompt length, counted in runes on the
// raw (untrimmed) prompt.
const MaxPromptChars = 10000

var (
	ErrEmptyPrompt   = errors.New("prompt must be a non-empty string")
	ErrPromptTooLong = fmt.Errorf("prompt exceeds the maximum length of %d characters", MaxPromptChars)
)

// ValidatePrompt applies the boundary rules shared by every transport.
// Rejected prompts never reach the dispatcher and are never journaled.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if utf8.RuneCountInString(prompt) > MaxPromptChars {
		return ErrPromptTooLong
	}
	return nil
}

type GenerateResult struct {
	Response   string
	Method     backend.Method
	DurationMs int64
}

// GenerateService runs one interaction end to end: dispatch through the tier
// chain, journal exactly one record, answer. It never fails a validated
// request; the worst case is the terminal tier's text with the failure noted
// in the journal.
type GenerateService struct {
	dispatcher *backend.Dispatcher
	terminal   backend.Generator
	journal    *store.Journal
}

func NewGenerateService(dispatcher *backend.Dispatcher, terminal backend.Generator, journal *store.Journal) *GenerateService {
	return &GenerateService{
		dispatcher: dispatcher,
		terminal:   terminal,
		journal:    journal,
	}
}

func (s *GenerateService) ProcessGenerate(ctx context.Context, prompt, source string) (result *GenerateResult, err error) {
	start := time.Now()
	prompt = strings.TrimSpace(prompt)

	// Crash recovery: a panic anywhere below still produces a terminal-tier
	// answer and a journal record carrying the panic.
	defer func() {
		if r := recover(); r != nil {
			panicErr := fmt.Errorf("generation panic: %v", r)
			slog.Error("Recovered from panic during generation", "source", source, "error", panicErr)

			text, _ := s.terminal.Generate(ctx, prompt)
			s.record(prompt, text, start, backend.MethodFallback, panicErr)

			result = &GenerateResult{
				Response:   text,
				Method:     backend.MethodFallback,
				DurationMs: time.Since(start).Milliseconds(),
			}
			err = nil
		}
	}()

	res := s.dispatcher.Generate(ctx, prompt)
	s.record(prompt, res.Text, start, res.Method, res.Err)

	duration := time.Since(start)
	metrics.GenerateDuration.WithLabelValues(string(res.Method)).Observe(duration.Seconds())

	slog.Info("Generation completed",
		"source", source,
		"method", res.Method,
		"prompt_chars", utf8.RuneCountInString(prompt),
		"response_chars", utf8.RuneCountInString(res.Text),
		"duration_ms", duration.Milliseconds())

	return &GenerateResult{
		Response:   res.Text,
		Method:     res.Method,
		DurationMs: duration.Milliseconds(),
	}, nil
}

// record appends the interaction to the journal. Append failures are counted
// and logged but never surfaced; the response has priority over the log.
func (s *GenerateService) record(prompt, response string, start time.Time, method backend.Method, genErr error) {
	if err := s.journal.Record(prompt, response, start, string(method), genErr); err != nil {
		metrics.JournalWriteFailures.Inc()
		slog.Error("Failed to record interaction", "error", err)
	}
	metrics.InteractionsTotal.WithLabelValues(string(method)).Inc()
}

// RecentInteractions returns up to limit journaled interactions, oldest
// first.
func (s *GenerateService) RecentInteractions(limit int) ([]models.InteractionRecord, error) {
	return s.journal.Tail(limit)
}
