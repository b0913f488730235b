package landmark

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

func TestBaseExpressions_NeutralPrior(t *testing.T) {
	expressions := baseExpressions(Scores{})

	assert.InDelta(t, 45, expressions[domain.EmotionNeutral], 1e-9)
	assert.InDelta(t, 15, expressions[domain.EmotionHappy], 1e-9)
	assert.Len(t, expressions, len(domain.Emotions))
}

func TestBaseExpressions_Shifts(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		check  func(t *testing.T, e map[domain.Emotion]float64)
	}{
		{
			name:   "wide relaxed mouth reads happy",
			scores: Scores{MouthAspect: 4.5, BrowTension: 0.2},
			check: func(t *testing.T, e map[domain.Emotion]float64) {
				assert.InDelta(t, 35, e[domain.EmotionHappy], 1e-9)
				assert.InDelta(t, 35, e[domain.EmotionNeutral], 1e-9)
			},
		},
		{
			name:   "furrowed brows shift to angry",
			scores: Scores{BrowTension: 0.8},
			check: func(t *testing.T, e map[domain.Emotion]float64) {
				assert.InDelta(t, 10+0.8*20, e[domain.EmotionAngry], 1e-9)
				assert.InDelta(t, 35, e[domain.EmotionNeutral], 1e-9)
			},
		},
		{
			name:   "droopy eyes shift to sad",
			scores: Scores{EyeFatigue: 0.6},
			check: func(t *testing.T, e map[domain.Emotion]float64) {
				assert.InDelta(t, 10+0.6*15, e[domain.EmotionSad], 1e-9)
				assert.InDelta(t, 40, e[domain.EmotionNeutral], 1e-9)
			},
		},
		{
			name:   "wide mouth under tense brows is not happy",
			scores: Scores{MouthAspect: 4.5, BrowTension: 0.9},
			check: func(t *testing.T, e map[domain.Emotion]float64) {
				assert.InDelta(t, 15, e[domain.EmotionHappy], 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, baseExpressions(tt.scores))
		})
	}
}

func TestAdjustExpressions(t *testing.T) {
	base := map[domain.Emotion]float64{
		domain.EmotionNeutral: 40,
		domain.EmotionAngry:   20,
		domain.EmotionSad:     10,
	}

	t.Run("brow tension boosts angry", func(t *testing.T) {
		adjusted := adjustExpressions(base, Scores{BrowTension: 0.7})
		assert.InDelta(t, 40, adjusted[domain.EmotionAngry], 1e-9)
		assert.InDelta(t, 25, adjusted[domain.EmotionNeutral], 1e-9)
	})

	t.Run("angry floor gates the boost", func(t *testing.T) {
		low := map[domain.Emotion]float64{domain.EmotionAngry: 12, domain.EmotionNeutral: 50}
		adjusted := adjustExpressions(low, Scores{BrowTension: 0.9})
		assert.InDelta(t, 12, adjusted[domain.EmotionAngry], 1e-9)
		assert.InDelta(t, 50, adjusted[domain.EmotionNeutral], 1e-9)
	})

	t.Run("eye fatigue boosts sad", func(t *testing.T) {
		adjusted := adjustExpressions(base, Scores{EyeFatigue: 0.6})
		assert.InDelta(t, 25, adjusted[domain.EmotionSad], 1e-9)
		assert.InDelta(t, 30, adjusted[domain.EmotionNeutral], 1e-9)
	})

	t.Run("input map is not mutated", func(t *testing.T) {
		_ = adjustExpressions(base, Scores{BrowTension: 0.9, EyeFatigue: 0.9})
		assert.InDelta(t, 40, base[domain.EmotionNeutral], 1e-9)
		assert.InDelta(t, 20, base[domain.EmotionAngry], 1e-9)
	})
}

// Adjustments must never push a single category outside [0,100], whatever
// the starting vector and scores.
func TestAdjustExpressions_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		expressions := make(map[domain.Emotion]float64, len(domain.Emotions))
		for _, e := range domain.Emotions {
			expressions[e] = rng.Float64() * 100
		}
		scores := Scores{
			BrowTension: rng.Float64() * 1.2,
			EyeFatigue:  rng.Float64() * 1.2,
		}

		adjusted := adjustExpressions(expressions, scores)
		for e, v := range adjusted {
			assert.GreaterOrEqual(t, v, 0.0, "emotion %s", e)
			assert.LessOrEqual(t, v, 100.0, "emotion %s", e)
		}
	}
}

func TestToPredictions(t *testing.T) {
	predictions := toPredictions(map[domain.Emotion]float64{
		domain.EmotionNeutral: 45.4,
		domain.EmotionAngry:   20.5,
		domain.EmotionSad:     0.2,
	})
	assert.Equal(t, 45, predictions[domain.EmotionNeutral])
	assert.Equal(t, 21, predictions[domain.EmotionAngry])
	assert.Equal(t, 0, predictions[domain.EmotionSad])
}
