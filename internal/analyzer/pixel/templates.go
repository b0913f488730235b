package pixel

import (
	"math"
	"math/rand"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// template is a hand-authored emotion weighting, in percent. Weights per
// template sum to 100 before jitter.
type template map[domain.Emotion]float64

// The four fixed emotion-probability templates. The constants are heuristic
// with no stated derivation; changing them is a product decision, not a bug
// fix.
var (
	positiveTemplate = template{
		domain.EmotionHappy:     35,
		domain.EmotionNeutral:   30,
		domain.EmotionSurprised: 10,
		domain.EmotionSad:       8,
		domain.EmotionAngry:     7,
		domain.EmotionFearful:   5,
		domain.EmotionDisgusted: 5,
	}
	negativeTemplate = template{
		domain.EmotionSad:       25,
		domain.EmotionAngry:     20,
		domain.EmotionNeutral:   20,
		domain.EmotionFearful:   15,
		domain.EmotionHappy:     8,
		domain.EmotionDisgusted: 7,
		domain.EmotionSurprised: 5,
	}
	tensionTemplate = template{
		domain.EmotionAngry:     25,
		domain.EmotionFearful:   20,
		domain.EmotionSurprised: 15,
		domain.EmotionNeutral:   15,
		domain.EmotionSad:       12,
		domain.EmotionHappy:     8,
		domain.EmotionDisgusted: 5,
	}
	neutralTemplate = template{
		domain.EmotionNeutral:   40,
		domain.EmotionHappy:     20,
		domain.EmotionSad:       12,
		domain.EmotionSurprised: 10,
		domain.EmotionAngry:     8,
		domain.EmotionFearful:   5,
		domain.EmotionDisgusted: 5,
	}
)

// Template selection bands.
const (
	brightBand       = 120 // brightness above this counts as well lit
	darkBand         = 90  // brightness below this counts as dark
	skinBand         = 0.5 // skin score at or above this counts as skin toned
	rednessBand      = 30  // mean red excess above this counts as red-heavy
	highContrastBand = 60
)

// selectTemplate picks one of the four templates from the documented
// brightness / skin-tone / redness / contrast bands.
func selectTemplate(stats Stats) template {
	switch {
	case stats.Brightness > brightBand && stats.SkinScore >= skinBand:
		return positiveTemplate
	case stats.Brightness < darkBand || stats.Redness() > rednessBand:
		return negativeTemplate
	case stats.Contrast > highContrastBand:
		return tensionTemplate
	default:
		return neutralTemplate
	}
}

// jitterAmplitude is the symmetric per-category jitter, on the fraction
// scale.
const jitterAmplitude = 0.05

// renderPredictions applies jitter to the template and renormalizes into
// integer percentages summing to ~100.
func renderPredictions(tmpl template, rng *rand.Rand) map[domain.Emotion]int {
	fractions := make(map[domain.Emotion]float64, len(tmpl))
	var sum float64
	for _, e := range domain.Emotions {
		f := tmpl[e]/100 + (rng.Float64()*2-1)*jitterAmplitude
		if f < 0.01 {
			f = 0.01
		}
		fractions[e] = f
		sum += f
	}

	predictions := make(map[domain.Emotion]int, len(fractions))
	for e, f := range fractions {
		predictions[e] = int(math.Round(f / sum * 100))
	}
	return predictions
}
