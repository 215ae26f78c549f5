package backend

import "context"

// Method identifies the tier that produced a response. The values are
// recorded verbatim in the interaction log and returned by /health-adjacent
// surfaces, so they are part of the wire contract.
type Method string

const (
	MethodRemoteDaemon Method = "remote_daemon"
	MethodLocalModel   Method = "local_model"
	MethodFallback     Method = "fallback"
)

// Generator is the contract every generation tier implements.
type Generator interface {
	Name() string
	Method() Method
	Generate(ctx context.Context, prompt string) (string, error)
}
