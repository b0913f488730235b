package analyzer

import (
	"context"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

// StressAnalyzer define a interface para os analisadores de stress facial.
// Each implementation is one link of the orchestrator's fallback chain.
type StressAnalyzer interface {
	// Name identifies the analyzer in logs and provenance tags.
	Name() string

	// Analyze produces a detection result for the frame. A (nil, nil)
	// return means the analyzer could not handle this frame (for example,
	// no face found) and the caller should fall through to the next one.
	Analyze(ctx context.Context, frame *imaging.Frame) (*domain.DetectionResult, error)
}
