package backend

import (
	"context"
	"log/slog"
	"time"
)

// Prober is implemented by tiers whose presence can be checked cheaply.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Availability holds the startup probe results. It is computed once and never
// refreshed; the dispatch order is fixed for the lifetime of the process.
type Availability struct {
	RemoteDaemonReachable bool
	LocalModelLoaded      bool
}

// Detect probes both upstream tiers and reports what is usable. Each probe
// gets its own timeout so a hung daemon cannot stall startup.
func Detect(ctx context.Context, remote, local Prober, probeTimeout time.Duration) Availability {
	var avail Availability

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	avail.RemoteDaemonReachable = remote.Probe(probeCtx)
	cancel()

	probeCtx, cancel = context.WithTimeout(ctx, probeTimeout)
	avail.LocalModelLoaded = local.Probe(probeCtx)
	cancel()

	slog.Info("Backend availability detected",
		"remote_daemon", avail.RemoteDaemonReachable,
		"local_model", avail.LocalModelLoaded)

	return avail
}
