// Package detect runs the analyzer fallback chain: remote inference first
// when the backend is reachable, then landmark geometry, then the pixel
// heuristic.
package detect

import (
	"context"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer"
	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
	"github.com/saturnino-fabrica-de-software/sereno/internal/probe"
)

// Orchestrator tries each analyzer in order until one produces a result.
// An analyzer error or a nil result both mean "try the next one"; only the
// exhaustion of the whole chain surfaces as an error.
type Orchestrator struct {
	prober    *probe.Prober
	remote    analyzer.StressAnalyzer
	fallbacks []analyzer.StressAnalyzer
	logger    *slog.Logger
}

// NewOrchestrator wires the chain. remote may be nil when no backend is
// configured; fallbacks run in the given order.
func NewOrchestrator(prober *probe.Prober, remote analyzer.StressAnalyzer, fallbacks []analyzer.StressAnalyzer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		prober:    prober,
		remote:    remote,
		fallbacks: fallbacks,
		logger:    logger,
	}
}

// Detect analyzes the frame through the chain and returns the first result.
func (o *Orchestrator) Detect(ctx context.Context, frame *imaging.Frame) (*domain.DetectionResult, error) {
	for _, a := range o.chain(ctx) {
		result, err := a.Analyze(ctx, frame)
		if err != nil {
			o.logger.Warn("analyzer failed, falling through",
				slog.String("analyzer", a.Name()),
				slog.Any("error", err),
			)
			continue
		}
		if result == nil {
			o.logger.Debug("analyzer found no face, falling through",
				slog.String("analyzer", a.Name()),
			)
			continue
		}
		o.logger.Info("detection complete",
			slog.String("analyzer", a.Name()),
			slog.String("emotion", string(result.Emotion)),
			slog.String("stress_level", string(result.StressLevel)),
		)
		return result, nil
	}
	return nil, domain.ErrNoFaceDetected
}

// chain resolves the analyzer order for this request. The remote analyzer
// participates only while the probe verdict is available.
func (o *Orchestrator) chain(ctx context.Context) []analyzer.StressAnalyzer {
	analyzers := make([]analyzer.StressAnalyzer, 0, len(o.fallbacks)+1)
	if o.remote != nil && o.prober != nil && o.prober.Check(ctx) == probe.StatusAvailable {
		analyzers = append(analyzers, o.remote)
	}
	return append(analyzers, o.fallbacks...)
}

// Reset clears the backend probe so the next detection re-checks it.
func (o *Orchestrator) Reset() {
	if o.prober != nil {
		o.prober.Reset()
	}
}
