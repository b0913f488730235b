package landmark

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

func uniformFrame(w, h int, v uint8) *imaging.Frame {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return imaging.FromImage(img)
}

// testFace builds a plausible frontal face in a 300x300 image: open eyes,
// relaxed brows, mouth with a 4:1 aspect.
func testFace() Face {
	return Face{
		Bounds:     domain.BoundingBox{X: 100, Y: 100, Width: 100, Height: 100},
		Score:      20,
		LeftPupil:  Point{X: 130, Y: 142},
		RightPupil: Point{X: 170, Y: 142},
		LeftEye: []Point{
			{X: 120, Y: 140}, {X: 140, Y: 140}, {X: 130, Y: 135}, {X: 130, Y: 145},
		},
		RightEye: []Point{
			{X: 160, Y: 140}, {X: 180, Y: 140}, {X: 170, Y: 135}, {X: 170, Y: 145},
		},
		MouthPoints: []Point{
			{X: 120, Y: 180}, {X: 160, Y: 180}, {X: 140, Y: 175}, {X: 140, Y: 185},
		},
	}
}

func TestComputeScores(t *testing.T) {
	frame := uniformFrame(300, 300, 200)
	scores, err := computeScores(testFace(), frame)
	require.NoError(t, err)

	// Eye spread 10/20 = 0.5, at or above the openness reference.
	assert.InDelta(t, 0.5, scores.EyeOpenness, 1e-9)
	assert.InDelta(t, 0, scores.EyeFatigue, 1e-9)

	// Brow distance (142-135)/100 = 0.07 of face height.
	assert.InDelta(t, 0.07, scores.BrowEyeDistance, 1e-9)
	assert.InDelta(t, 1-0.07/browDistReference, scores.BrowTension, 1e-9)

	// Mouth 40/10 = 4.0 lands in the middle tier.
	assert.InDelta(t, 4.0, scores.MouthAspect, 1e-9)
	assert.InDelta(t, 0.4, scores.MouthTension, 1e-9)

	// Bright frame: almost no under-eye darkness.
	assert.InDelta(t, 0, scores.DarkCircles, 0.01)

	// Symmetric brows: no wrinkle signal.
	assert.InDelta(t, 0, scores.Wrinkle, 1e-9)

	// Weighted sums.
	wantFatigue := scores.EyeFatigue*0.3 + scores.DarkCircles*0.3 + scores.MouthTension*0.2 + scores.Wrinkle*0.2
	assert.InDelta(t, wantFatigue, scores.FatigueScore, 1e-9)
	wantOverall := scores.EyeFatigue*0.25 + scores.BrowTension*0.3 + scores.MouthTension*0.15 +
		scores.DarkCircles*0.2 + scores.FatigueScore*0.1
	assert.InDelta(t, wantOverall, scores.OverallStress, 1e-9)
}

func TestComputeScores_MouthTiers(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		want   float64
	}{
		{
			name:   "wide mouth above four",
			points: []Point{{X: 100, Y: 180}, {X: 150, Y: 180}, {X: 125, Y: 176}, {X: 125, Y: 184}},
			want:   0.7, // 50/8 = 6.25
		},
		{
			name:   "mid mouth above three",
			points: []Point{{X: 110, Y: 180}, {X: 145, Y: 180}, {X: 127, Y: 175}, {X: 127, Y: 185}},
			want:   0.4, // 35/10 = 3.5
		},
		{
			name:   "tall mouth",
			points: []Point{{X: 120, Y: 180}, {X: 150, Y: 180}, {X: 135, Y: 172}, {X: 135, Y: 188}},
			want:   0.2, // 30/16 = 1.875
		},
	}

	frame := uniformFrame(300, 300, 200)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := testFace()
			face.MouthPoints = tt.points
			scores, err := computeScores(face, frame)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, scores.MouthTension, 1e-9)
		})
	}
}

func TestComputeScores_DarkFrameRaisesDarkCircles(t *testing.T) {
	dark := uniformFrame(300, 300, 20)
	scores, err := computeScores(testFace(), dark)
	require.NoError(t, err)
	assert.Greater(t, scores.DarkCircles, 0.8)
}

func TestComputeScores_NarrowEyesRaiseFatigue(t *testing.T) {
	face := testFace()
	// Flatten both eye contours: vertical spread 2 over width 20.
	face.LeftEye = []Point{{X: 120, Y: 141}, {X: 140, Y: 141}, {X: 130, Y: 140}, {X: 130, Y: 142}}
	face.RightEye = []Point{{X: 160, Y: 141}, {X: 180, Y: 141}, {X: 170, Y: 140}, {X: 170, Y: 142}}

	scores, err := computeScores(face, uniformFrame(300, 300, 200))
	require.NoError(t, err)

	assert.InDelta(t, 0.1, scores.EyeOpenness, 1e-9)
	assert.InDelta(t, 0.75, scores.EyeFatigue, 1e-9)
}

func TestComputeScores_MissingLandmarksDegradeToDefaults(t *testing.T) {
	face := testFace()
	face.LeftEye = nil

	scores, err := computeScores(face, uniformFrame(300, 300, 200))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLandmarkGeometry))
	assert.Equal(t, DefaultScores(), scores)
}

func TestComputeScores_DegenerateContourRecovers(t *testing.T) {
	face := testFace()
	// Zero-width eye contour triggers the panic path inside spreadRatio.
	face.LeftEye = []Point{{X: 130, Y: 140}, {X: 130, Y: 145}}

	scores, err := computeScores(face, uniformFrame(300, 300, 200))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLandmarkGeometry))
	assert.Equal(t, DefaultScores(), scores)
}

func TestDefaultScores(t *testing.T) {
	scores := DefaultScores()
	assert.InDelta(t, 0.3, scores.EyeFatigue, 1e-9)
	assert.InDelta(t, 0.3, scores.BrowTension, 1e-9)
	assert.InDelta(t, 0.3, scores.MouthTension, 1e-9)
	assert.InDelta(t, 0.3, scores.DarkCircles, 1e-9)
	assert.InDelta(t, 0.3, scores.Wrinkle, 1e-9)
	assert.Greater(t, scores.OverallStress, 0.0)
	assert.Less(t, scores.OverallStress, 1.0)
}
