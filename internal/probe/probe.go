// Package probe keeps a cached availability verdict for the remote
// inference backend so every detection does not pay for a health roundtrip.
package probe

import (
	"context"
	"log/slog"
	"sync"
)

// Status is the cached backend verdict.
type Status int

const (
	// StatusUnknown means no probe has run yet.
	StatusUnknown Status = iota
	// StatusAvailable means the last probe saw a healthy backend.
	StatusAvailable
	// StatusUnavailable means the last probe failed; the verdict sticks
	// until Reset.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// HealthChecker is the backend health call, satisfied by the CNN client.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Prober probes the backend once and caches the verdict. Safe for
// concurrent use.
type Prober struct {
	checker       HealthChecker
	logger        *slog.Logger
	onUnavailable func()

	mu     sync.Mutex
	status Status
}

// New creates a prober. onUnavailable, if non-nil, fires once per failed
// probe cycle; the orchestrator uses it to pre-warm the fallback models.
func New(checker HealthChecker, logger *slog.Logger, onUnavailable func()) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		checker:       checker,
		logger:        logger,
		onUnavailable: onUnavailable,
	}
}

// Check returns the cached verdict, running the probe on first use. The
// probe runs at most once per cycle even under concurrent callers.
func (p *Prober) Check(ctx context.Context) Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != StatusUnknown {
		return p.status
	}

	if err := p.checker.Health(ctx); err != nil {
		p.status = StatusUnavailable
		p.logger.Warn("inference backend unavailable, client-side analysis takes over",
			slog.Any("error", err),
		)
		if p.onUnavailable != nil {
			p.onUnavailable()
		}
		return p.status
	}

	p.status = StatusAvailable
	p.logger.Info("inference backend available")
	return p.status
}

// Status returns the cached verdict without probing.
func (p *Prober) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Reset clears the verdict so the next Check probes again.
func (p *Prober) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = StatusUnknown
}
