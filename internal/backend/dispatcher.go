package backend

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Result is the outcome of a dispatch. Err never means the request failed; it
// carries the errors of higher tiers that were skipped over before Text was
// produced, for the interaction log's error field.
type Result struct {
	Text   string
	Method Method
	Err    error
}

// Dispatcher walks a fixed priority chain of generation tiers and returns the
// first success. The chain is assembled once from the startup availability
// probe; the terminal tier never fails, so Generate is total.
type Dispatcher struct {
	chain []Generator
}

func NewDispatcher(avail Availability, remote, local, terminal Generator) *Dispatcher {
	chain := make([]Generator, 0, 3)
	if avail.RemoteDaemonReachable {
		chain = append(chain, remote)
	}
	if avail.LocalModelLoaded {
		chain = append(chain, local)
	}
	chain = append(chain, terminal)
	return &Dispatcher{chain: chain}
}

// Chain lists the active tier methods in dispatch order.
func (d *Dispatcher) Chain() []Method {
	methods := make([]Method, len(d.chain))
	for i, g := range d.chain {
		methods[i] = g.Method()
	}
	return methods
}

func (d *Dispatcher) Generate(ctx context.Context, prompt string) Result {
	var failures []string

	for _, g := range d.chain {
		text, err := g.Generate(ctx, prompt)
		if err == nil {
			return Result{Text: text, Method: g.Method(), Err: joinFailures(failures)}
		}
		slog.Warn("Generation tier failed, falling through", "tier", g.Name(), "error", err)
		failures = append(failures, err.Error())
	}

	// Unreachable while the terminal tier is infallible.
	return Result{Method: MethodFallback, Err: joinFailures(failures)}
}

func joinFailures(failures []string) error {
	if len(failures) == 0 {
		return nil
	}
	return errors.New(strings.Join(failures, "; "))
}
