// Package insights derives read-only metrics from detection results: the
// relief-urgency score attached to each scan and the rolling stress trend
// computed over the stored scan history.
package insights

import (
	"math"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// urgencyBase is the per-stress-level starting score.
var urgencyBase = map[domain.StressLevel]float64{
	domain.StressLow:    2,
	domain.StressMedium: 5,
	domain.StressHigh:   8,
}

// featureWeight is the urgency contribution of each ordinal feature level.
var featureWeight = [5]float64{0, 0.3, 0.6, 0.9, 1.2}

// ReliefUrgency scores how urgently relief guidance should be emphasised,
// on a 1-10 scale. Base score comes from the stress level, negative emotions
// add one point, and each facial feature contributes by its severity.
func ReliefUrgency(stress domain.StressLevel, emotion domain.Emotion, eyeStrain, browTension, fatigue domain.FeatureLevel) int {
	score := urgencyBase[stress]

	if domain.NegativeEmotions[emotion] {
		score++
	}

	for _, level := range []domain.FeatureLevel{eyeStrain, browTension, fatigue} {
		score += featureWeight[level.Index()]
	}

	urgency := int(math.Round(score))
	if urgency < 1 {
		urgency = 1
	}
	if urgency > 10 {
		urgency = 10
	}
	return urgency
}
