package landmark

import (
	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// baseExpressions estimates the 7-category expression vector from the
// geometry sub-scores. The cascades localize landmarks but carry no
// expression head, so the vector starts from a neutral-leaning prior and
// shifts with the observed tension and fatigue.
func baseExpressions(scores Scores) map[domain.Emotion]float64 {
	expressions := map[domain.Emotion]float64{
		domain.EmotionNeutral:   45,
		domain.EmotionHappy:     15,
		domain.EmotionSad:       10,
		domain.EmotionAngry:     10,
		domain.EmotionFearful:   8,
		domain.EmotionSurprised: 7,
		domain.EmotionDisgusted: 5,
	}

	// Wide mouth with relaxed brows reads as a smile.
	if scores.MouthAspect > 3.5 && scores.BrowTension < 0.4 {
		expressions[domain.EmotionHappy] += 20
		expressions[domain.EmotionNeutral] -= 10
	}
	// Furrowed brows shift weight from neutral to angry.
	if scores.BrowTension > 0.5 {
		expressions[domain.EmotionAngry] += scores.BrowTension * 20
		expressions[domain.EmotionNeutral] -= 10
	}
	// Droopy eyes shift weight towards sad.
	if scores.EyeFatigue > 0.4 {
		expressions[domain.EmotionSad] += scores.EyeFatigue * 15
		expressions[domain.EmotionNeutral] -= 5
	}

	for e, v := range expressions {
		if v < 0 {
			expressions[e] = 0
		}
		if v > 100 {
			expressions[e] = 100
		}
	}
	return expressions
}

// Adjustment thresholds and deltas applied on top of the raw expression
// probabilities.
const (
	browAdjustThreshold = 0.6
	angryFloor          = 15
	angryBoost          = 20
	neutralAngryCut     = 15

	fatigueAdjustThreshold = 0.5
	sadBoost               = 15
	neutralSadCut          = 10
)

// adjustExpressions applies the tension/fatigue corrections to the raw
// probabilities, keeping every category inside [0,100].
func adjustExpressions(expressions map[domain.Emotion]float64, scores Scores) map[domain.Emotion]float64 {
	adjusted := make(map[domain.Emotion]float64, len(expressions))
	for e, v := range expressions {
		adjusted[e] = v
	}

	if scores.BrowTension > browAdjustThreshold && adjusted[domain.EmotionAngry] > angryFloor {
		adjusted[domain.EmotionAngry] += angryBoost
		adjusted[domain.EmotionNeutral] -= neutralAngryCut
	}
	if scores.EyeFatigue > fatigueAdjustThreshold {
		adjusted[domain.EmotionSad] += sadBoost
		adjusted[domain.EmotionNeutral] -= neutralSadCut
	}

	for e, v := range adjusted {
		if v < 0 {
			adjusted[e] = 0
		}
		if v > 100 {
			adjusted[e] = 100
		}
	}
	return adjusted
}

// toPredictions rounds the expression vector into integer percentages.
func toPredictions(expressions map[domain.Emotion]float64) map[domain.Emotion]int {
	predictions := make(map[domain.Emotion]int, len(expressions))
	for e, v := range expressions {
		predictions[e] = int(v + 0.5)
	}
	return predictions
}
