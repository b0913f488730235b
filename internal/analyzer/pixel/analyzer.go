// Package pixel is the last-resort analyzer: it maps global pixel statistics
// onto hand-authored emotion templates. It never fails; an undecodable image
// degrades to a fixed neutral result.
package pixel

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer"
	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

// Feature-index ranges per stress level, [min,max] inclusive on the 0-4
// ordinal scale.
var featureRanges = map[domain.StressLevel]struct {
	eye, brow, fatigue [2]int
}{
	domain.StressHigh:   {eye: [2]int{3, 4}, brow: [2]int{2, 4}, fatigue: [2]int{2, 4}},
	domain.StressMedium: {eye: [2]int{1, 3}, brow: [2]int{1, 2}, fatigue: [2]int{1, 2}},
	domain.StressLow:    {eye: [2]int{0, 1}, brow: [2]int{0, 1}, fatigue: [2]int{0, 1}},
}

const (
	lowBrightness = 100 // below this, fatigue gets a deterministic boost
	minConfidence = 70
	maxConfidence = 95
)

// Analyzer computes stress from raw pixel statistics.
type Analyzer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAnalyzer creates a pixel-heuristic analyzer seeded from the clock.
func NewAnalyzer() *Analyzer {
	return &Analyzer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewAnalyzerWithSeed creates a deterministic analyzer for tests.
func NewAnalyzerWithSeed(seed int64) *Analyzer {
	return &Analyzer{rng: rand.New(rand.NewSource(seed))}
}

func (a *Analyzer) Name() string {
	return domain.MethodPixel
}

// Analyze always produces a result. The error return exists only to satisfy
// the analyzer interface; it is always nil.
func (a *Analyzer) Analyze(ctx context.Context, frame *imaging.Frame) (*domain.DetectionResult, error) {
	if frame == nil || !frame.Decoded() {
		return a.defaultResult(), nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stats := Compute(frame)
	predictions := renderPredictions(selectTemplate(stats), a.rng)

	emotion := domain.DominantEmotion(predictions)
	stress := domain.StressFromEmotion(emotion)

	ranges := featureRanges[stress]
	eyeIdx := a.randRange(ranges.eye)
	browIdx := a.randRange(ranges.brow)
	fatigueIdx := a.randRange(ranges.fatigue)

	// Deterministic boosts from the raw statistics.
	if stats.Brightness < lowBrightness {
		fatigueIdx++
	}
	if stats.Contrast > highContrastBand {
		browIdx++
	}

	return &domain.DetectionResult{
		Emotion:         emotion,
		StressLevel:     stress,
		EyeStrain:       domain.FeatureFromIndex(eyeIdx),
		BrowTension:     domain.FeatureFromIndex(browIdx),
		FacialFatigue:   domain.FeatureFromIndex(fatigueIdx),
		Confidence:      a.confidence(stats),
		DetectionMethod: domain.MethodPixel,
		FaceDetected:    false,
		AllPredictions:  predictions,
		CombinedStress:  stress,
	}, nil
}

func (a *Analyzer) randRange(bounds [2]int) int {
	return bounds[0] + a.rng.Intn(bounds[1]-bounds[0]+1)
}

// confidence scores how much the statistics can be trusted: brightness near
// mid-scale and contrast up to saturation raise it, skin tone raises it,
// and a jitter term keeps repeated scans from looking synthetic.
func (a *Analyzer) confidence(stats Stats) int {
	brightnessScore := 1 - math.Abs(stats.Brightness-128)/128
	contrastScore := stats.Contrast / 50
	if contrastScore > 1 {
		contrastScore = 1
	}
	quality := brightnessScore*0.6 + contrastScore*0.4

	jitter := a.rng.Float64()*20 - 5 // [-5, 15)
	conf := quality*60 + stats.SkinScore*30 + jitter

	if conf < minConfidence {
		conf = minConfidence
	}
	if conf > maxConfidence {
		conf = maxConfidence
	}
	return int(math.Round(conf))
}

// defaultResult is the fixed neutral fallback when the image cannot be
// decoded. The last-resort path must always succeed.
func (a *Analyzer) defaultResult() *domain.DetectionResult {
	predictions := make(map[domain.Emotion]int, len(neutralTemplate))
	for e, pct := range neutralTemplate {
		predictions[e] = int(pct)
	}

	return &domain.DetectionResult{
		Emotion:         domain.EmotionNeutral,
		StressLevel:     domain.StressLow,
		EyeStrain:       domain.FeatureNormal,
		BrowTension:     domain.FeatureNormal,
		FacialFatigue:   domain.FeatureNormal,
		Confidence:      minConfidence,
		DetectionMethod: domain.MethodPixel,
		FaceDetected:    false,
		AllPredictions:  predictions,
		CombinedStress:  domain.StressLow,
	}
}

// Ensure Analyzer implements analyzer.StressAnalyzer
var _ analyzer.StressAnalyzer = (*Analyzer)(nil)
