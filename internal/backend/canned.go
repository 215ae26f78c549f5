package backend

import (
	"context"
	"fmt"
	"strings"
)

// Canned is the terminal tier: deterministic stubbed responses keyed off the
// prompt's wording. It never fails, which keeps the dispatcher total.
type Canned struct{}

func NewCanned() *Canned {
	return &Canned{}
}

var (
	greetingWords = []string{"hello", "hi", "hey"}
	questionWords = []string{"what", "how", "why", "when", "where"}
	creativeWords = []string{"write", "create", "generate"}
)

func (c *Canned) Name() string {
	return "canned"
}

func (c *Canned) Method() Method {
	return MethodFallback
}

func (c *Canned) Generate(ctx context.Context, prompt string) (string, error) {
	lower := strings.ToLower(prompt)
	echo := truncateRunes(prompt, 50)

	switch {
	case containsAny(lower, greetingWords):
		return "Hello! This is a stubbed response from MiniVault API. How can I help you today?", nil
	case containsAny(lower, questionWords):
		return fmt.Sprintf("This is a stubbed response to your question: '%s...'. In a real implementation, I would provide a detailed answer.", echo), nil
	case containsAny(lower, creativeWords):
		return fmt.Sprintf("This is a stubbed creative response. In a real implementation, I would generate content based on: '%s...'", echo), nil
	default:
		return fmt.Sprintf("This is a stubbed response from MiniVault API. Your prompt was: '%s...'", echo), nil
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
