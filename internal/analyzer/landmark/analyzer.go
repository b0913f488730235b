// Package landmark is the client-side fallback analyzer: cascade-based face
// detection plus landmark-geometry scoring, no remote calls involved.
package landmark

import (
	"context"
	"log/slog"
	"math"

	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer"
	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

// The two detection passes: a primary configuration and a more permissive
// retry for small or low-contrast faces.
var (
	primaryPass    = DetectOpts{InputSize: 416, ScoreThreshold: 0.3}
	permissivePass = DetectOpts{InputSize: 320, ScoreThreshold: 0.2}
)

// Stress escalation thresholds on the overall stress score.
const (
	escalateLowAbove    = 0.7
	escalateMediumAbove = 0.8
)

// Analyzer implements the landmark-geometry analysis path.
type Analyzer struct {
	detector Detector
	loader   *Loader
	logger   *slog.Logger
}

// NewAnalyzer creates the landmark analyzer over a cascade loader.
func NewAnalyzer(loader *Loader, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		detector: NewPigoDetector(loader),
		loader:   loader,
		logger:   logger,
	}
}

// NewAnalyzerWithDetector wires a custom detector, used by tests.
func NewAnalyzerWithDetector(detector Detector, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{detector: detector, logger: logger}
}

func (a *Analyzer) Name() string {
	return domain.MethodLandmark
}

// Loader exposes the cascade loader for pre-warming and test resets. Nil
// when a custom detector was injected.
func (a *Analyzer) Loader() *Loader {
	return a.loader
}

// escalateStress raises the emotion-derived stress level when the geometric
// overall score contradicts it. Stress is never lowered.
func escalateStress(stress domain.StressLevel, overall float64) domain.StressLevel {
	switch {
	case stress == domain.StressLow && overall > escalateLowAbove:
		return stress.Escalate()
	case stress == domain.StressMedium && overall > escalateMediumAbove:
		return stress.Escalate()
	}
	return stress
}

// Analyze runs the two detection passes and scores the first face found.
// A (nil, nil) return means no face was detected and the caller should fall
// through to the pixel heuristic.
func (a *Analyzer) Analyze(ctx context.Context, frame *imaging.Frame) (*domain.DetectionResult, error) {
	if frame == nil || !frame.Decoded() {
		return nil, domain.ErrImageDecode
	}

	faces, err := a.detector.Detect(ctx, frame, primaryPass)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		faces, err = a.detector.Detect(ctx, frame, permissivePass)
		if err != nil {
			return nil, err
		}
	}
	if len(faces) == 0 {
		return nil, nil
	}

	face := faces[0]
	scores, err := computeScores(face, frame)
	if err != nil {
		// Geometry failures degrade to the default score set; the
		// detection itself still succeeds.
		a.logger.Debug("landmark geometry degraded to defaults", slog.Any("error", err))
		scores = DefaultScores()
	}

	expressions := adjustExpressions(baseExpressions(scores), scores)
	predictions := toPredictions(expressions)
	emotion := domain.DominantEmotion(predictions)

	stress := escalateStress(domain.StressFromEmotion(emotion), scores.OverallStress)

	maxProb := expressions[emotion]
	confidence := int(math.Round(maxProb*0.85 + 15))

	result := &domain.DetectionResult{
		Emotion:         emotion,
		StressLevel:     stress,
		EyeStrain:       domain.FeatureFromScore(scores.EyeFatigue),
		BrowTension:     domain.FeatureFromScore(scores.BrowTension),
		FacialFatigue:   domain.FeatureFromScore(scores.FatigueScore),
		Confidence:      confidence,
		DetectionMethod: domain.MethodLandmark,
		FaceDetected:    true,
		AllPredictions:  predictions,
		FacesCount:      len(faces),
		CombinedStress:  stress,
		FacialAnalysis: &domain.FacialAnalysis{
			EyeFatigue:      scores.EyeFatigue,
			BrowTension:     scores.BrowTension,
			MouthTension:    scores.MouthTension,
			DarkCircles:     scores.DarkCircles,
			WrinkleIndex:    scores.Wrinkle,
			FatigueScore:    scores.FatigueScore,
			OverallStress:   scores.OverallStress,
			EyeOpenness:     scores.EyeOpenness,
			BrowEyeDistance: scores.BrowEyeDistance,
			MouthAspect:     scores.MouthAspect,
		},
	}

	for i, f := range faces {
		result.AllFaces = append(result.AllFaces, domain.FaceResult{
			FaceID:      i,
			Emotion:     emotion,
			StressLevel: stress,
			Confidence:  float64(confidence),
			BoundingBox: f.Bounds,
		})
		if i == 0 {
			result.AllFaces[0].AllPredictions = predictions
		}
	}

	return result, nil
}

// Ensure Analyzer implements analyzer.StressAnalyzer
var _ analyzer.StressAnalyzer = (*Analyzer)(nil)
