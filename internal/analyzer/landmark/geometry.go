package landmark

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

// Scores are the continuous facial-tension sub-scores, all in [0,1]. The
// mapping constants are heuristic and preserved as-is; changing them is a
// product decision, not a bug fix.
type Scores struct {
	EyeFatigue    float64
	BrowTension   float64
	MouthTension  float64
	DarkCircles   float64
	Wrinkle       float64
	FatigueScore  float64
	OverallStress float64

	// Raw ratios kept for the facialAnalysis detail block.
	EyeOpenness     float64
	BrowEyeDistance float64
	MouthAspect     float64
}

// defaultSubScore replaces every sub-score when geometry computation fails;
// detection must still succeed with a neutral-ish result.
const defaultSubScore = 0.3

// Linear-mapping constants for the geometric ratios.
const (
	eyeOpenReference  = 0.40 // openness ratio at or above this scores zero fatigue
	browDistReference = 0.15 // brow-eye distance (face-height normalized) at or above this scores zero tension
	darkLumaReference = 200  // under-eye luma at or above this scores zero darkness
	wrinkleReference  = 0.05 // left/right brow-height delta saturating the wrinkle proxy
)

// computeScores derives all sub-scores from the landmark geometry and local
// pixel sampling. Any failure mid-computation degrades to the default score
// set instead of aborting the detection.
func computeScores(face Face, frame *imaging.Frame) (scores Scores, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrLandmarkGeometry, r)
			scores = DefaultScores()
		}
	}()

	if face.Bounds.Height <= 0 || len(face.LeftEye) == 0 || len(face.RightEye) == 0 {
		return DefaultScores(), fmt.Errorf("%w: missing landmark points", domain.ErrLandmarkGeometry)
	}

	faceH := float64(face.Bounds.Height)

	// Eye openness: vertical over horizontal landmark spread, averaged over
	// both eyes. Lower means sleepier.
	openL := spreadRatio(face.LeftEye)
	openR := spreadRatio(face.RightEye)
	scores.EyeOpenness = (openL + openR) / 2
	scores.EyeFatigue = clamp01(1 - scores.EyeOpenness/eyeOpenReference)

	// Brow-to-eye distance: topmost eye-region point against the pupil row,
	// normalized by face height. Smaller or negative means furrowed.
	browL := (face.LeftPupil.Y - topmostY(face.LeftEye)) / faceH
	browR := (face.RightPupil.Y - topmostY(face.RightEye)) / faceH
	scores.BrowEyeDistance = (browL + browR) / 2
	scores.BrowTension = clamp01(1 - scores.BrowEyeDistance/browDistReference)

	// Mouth width/height ratio, three-tier thresholding.
	scores.MouthAspect = mouthAspect(face.MouthPoints)
	switch {
	case scores.MouthAspect > 4:
		scores.MouthTension = 0.7
	case scores.MouthAspect > 3:
		scores.MouthTension = 0.4
	default:
		scores.MouthTension = 0.2
	}

	// Under-eye darkness sampled in a small grid below each pupil.
	darkL := underEyeDarkness(frame, face.LeftPupil, faceH)
	darkR := underEyeDarkness(frame, face.RightPupil, faceH)
	scores.DarkCircles = (darkL + darkR) / 2

	// Brow-height left/right variance as a wrinkle proxy.
	scores.Wrinkle = clamp01(math.Abs(browL-browR) / wrinkleReference)

	scores.FatigueScore = scores.EyeFatigue*0.3 + scores.DarkCircles*0.3 +
		scores.MouthTension*0.2 + scores.Wrinkle*0.2
	scores.OverallStress = scores.EyeFatigue*0.25 + scores.BrowTension*0.3 +
		scores.MouthTension*0.15 + scores.DarkCircles*0.2 + scores.FatigueScore*0.1

	return scores, nil
}

// DefaultScores is the neutral-ish fallback when geometry fails.
func DefaultScores() Scores {
	s := Scores{
		EyeFatigue:   defaultSubScore,
		BrowTension:  defaultSubScore,
		MouthTension: defaultSubScore,
		DarkCircles:  defaultSubScore,
		Wrinkle:      defaultSubScore,
	}
	s.FatigueScore = s.EyeFatigue*0.3 + s.DarkCircles*0.3 + s.MouthTension*0.2 + s.Wrinkle*0.2
	s.OverallStress = s.EyeFatigue*0.25 + s.BrowTension*0.3 + s.MouthTension*0.15 +
		s.DarkCircles*0.2 + s.FatigueScore*0.1
	return s
}

// spreadRatio is the vertical over horizontal extent of a point set.
func spreadRatio(points []Point) float64 {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	width := maxX - minX
	if width <= 0 {
		panic("degenerate eye contour")
	}
	return (maxY - minY) / width
}

func topmostY(points []Point) float64 {
	top := points[0].Y
	for _, p := range points[1:] {
		top = math.Min(top, p.Y)
	}
	return top
}

// mouthAspect is width over height of the mouth point set. A missing or
// degenerate mouth reads as closed (high ratio).
func mouthAspect(points []Point) float64 {
	if len(points) < 2 {
		return 5
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	height := maxY - minY
	if height <= 0 {
		return 5
	}
	return (maxX - minX) / height
}

// underEyeDarkness samples a 3x3 grid below the pupil and maps mean luma to
// a darkness score.
func underEyeDarkness(frame *imaging.Frame, pupil Point, faceH float64) float64 {
	if frame == nil || !frame.Decoded() {
		return defaultSubScore
	}

	offsetY := faceH * 0.15
	step := math.Max(1, faceH*0.02)

	var sum float64
	var n int
	for dy := 0; dy < 3; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x := int(pupil.X + float64(dx)*step)
			y := int(pupil.Y + offsetY + float64(dy)*step)
			sum += frame.Luma(x, y)
			n++
		}
	}

	mean := sum / float64(n)
	return clamp01(1 - mean/darkLumaReference)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
