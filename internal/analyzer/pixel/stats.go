package pixel

import (
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

// maxSampleGrid bounds the sampling grid so large captures stay cheap.
const maxSampleGrid = 96

// Stats holds the global pixel statistics the heuristic maps to emotion
// templates.
type Stats struct {
	Brightness float64 // mean luminance, 0-255
	Contrast   float64 // mean absolute luminance delta between adjacent samples
	MeanR      float64
	MeanG      float64
	MeanB      float64
	SkinScore  float64 // skin-tone plausibility, 0-1
}

// Compute samples the frame on a bounded grid and derives brightness,
// contrast, per-channel means and the skin-tone plausibility score.
func Compute(frame *imaging.Frame) Stats {
	w, h := frame.Size()
	if w == 0 || h == 0 {
		return Stats{}
	}

	stepX := w / maxSampleGrid
	if stepX < 1 {
		stepX = 1
	}
	stepY := h / maxSampleGrid
	if stepY < 1 {
		stepY = 1
	}

	var (
		sumLuma, sumDelta          float64
		sumR, sumG, sumB           float64
		samples, deltas            int
		prevLuma                   float64
		havePrev                   bool
	)

	for y := 0; y < h; y += stepY {
		havePrev = false
		for x := 0; x < w; x += stepX {
			r, g, b := frame.RGBAt(x, y)
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)

			sumLuma += luma
			sumR += float64(r)
			sumG += float64(g)
			sumB += float64(b)
			samples++

			if havePrev {
				delta := luma - prevLuma
				if delta < 0 {
					delta = -delta
				}
				sumDelta += delta
				deltas++
			}
			prevLuma = luma
			havePrev = true
		}
	}

	stats := Stats{
		Brightness: sumLuma / float64(samples),
		MeanR:      sumR / float64(samples),
		MeanG:      sumG / float64(samples),
		MeanB:      sumB / float64(samples),
	}
	if deltas > 0 {
		stats.Contrast = sumDelta / float64(deltas)
	}
	stats.SkinScore = skinScore(stats.MeanR, stats.MeanG, stats.MeanB)

	return stats
}

// Skin-tone plausibility bands for the R/G and R/B channel ratios. The
// constants are heuristic and preserved as-is for compatibility.
const (
	minRG = 1.05
	maxRG = 1.60
	minRB = 1.10
	maxRB = 1.90
)

func skinScore(r, g, b float64) float64 {
	if g <= 0 || b <= 0 {
		return 0.3
	}
	rg := r / g
	rb := r / b
	if rg < minRG || rg > maxRG || rb < minRB || rb > maxRB {
		return 0.3
	}
	// In range: scale by how deep into the band the ratios sit.
	depth := (rg - minRG) / (maxRG - minRG)
	if depth > 1 {
		depth = 1
	}
	return 0.5 + depth*0.5
}

// Redness reports how red-heavy the frame is against the other channels.
func (s Stats) Redness() float64 {
	other := s.MeanG
	if s.MeanB > other {
		other = s.MeanB
	}
	return s.MeanR - other
}
