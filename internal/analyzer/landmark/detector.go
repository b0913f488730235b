package landmark

import (
	"context"
	"image"

	pigo "github.com/esimov/pigo/core"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

// Point is a landmark coordinate in original image space.
type Point struct {
	X float64
	Y float64
}

// Face is one detected face with its landmark point sets. Eye point slices
// hold the eye-region contour (corners plus lid points); the topmost contour
// point doubles as the brow-ridge proxy.
type Face struct {
	Bounds      domain.BoundingBox
	Score       float64
	LeftPupil   Point
	RightPupil  Point
	LeftEye     []Point
	RightEye    []Point
	MouthPoints []Point
}

// DetectOpts mirror the two detection passes: a primary configuration and a
// more permissive retry.
type DetectOpts struct {
	InputSize      int     // image is downscaled so its longer side fits this
	ScoreThreshold float64 // normalized detection quality cutoff, 0-1
}

// Detector finds faces and their landmark points in a frame.
type Detector interface {
	Detect(ctx context.Context, frame *imaging.Frame, opts DetectOpts) ([]Face, error)
}

// pigo quality values grow roughly linearly with cluster agreement; this
// scale converts the normalized threshold into that range.
const qualityScale = 35.0

const puplocPerturbs = 50

// PigoDetector implements Detector with the pigo cascade classifiers.
type PigoDetector struct {
	loader *Loader
}

// NewPigoDetector wires a detector over a cascade loader.
func NewPigoDetector(loader *Loader) *PigoDetector {
	return &PigoDetector{loader: loader}
}

func (d *PigoDetector) Detect(ctx context.Context, frame *imaging.Frame, opts DetectOpts) ([]Face, error) {
	assets, err := d.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if frame == nil || !frame.Decoded() {
		return nil, domain.ErrImageDecode
	}

	src := frame.NRGBA()
	scaled, factor := downscale(src, opts.InputSize)

	rows := scaled.Bounds().Dy()
	cols := scaled.Bounds().Dx()
	imgParams := pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(scaled),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}

	minSize := rows / 10
	if cols/10 < minSize {
		minSize = cols / 10
	}
	if minSize < 20 {
		minSize = 20
	}

	cParams := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     max(rows, cols),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: imgParams,
	}

	dets := assets.face.RunCascade(cParams, 0.0)
	dets = assets.face.ClusterDetections(dets, 0.2)

	threshold := float32(opts.ScoreThreshold * qualityScale)

	var faces []Face
	for _, det := range dets {
		if det.Q < threshold {
			continue
		}
		face := d.landmarks(assets, det, imgParams)
		face = rescale(face, factor)
		faces = append(faces, face)
	}

	return faces, nil
}

// landmarks localizes pupils, eye contours and mouth points for one
// detection, in scaled image coordinates.
func (d *PigoDetector) landmarks(assets *modelAssets, det pigo.Detection, imgParams pigo.ImageParams) Face {
	half := det.Scale / 2
	face := Face{
		Bounds: domain.BoundingBox{
			X:      det.Col - half,
			Y:      det.Row - half,
			Width:  det.Scale,
			Height: det.Scale,
		},
		Score: float64(det.Q),
	}

	left := pigo.Puploc{
		Row:      det.Row - int(0.075*float32(det.Scale)),
		Col:      det.Col - int(0.175*float32(det.Scale)),
		Scale:    float32(det.Scale) * 0.25,
		Perturbs: puplocPerturbs,
	}
	leftEye := assets.puploc.RunDetector(left, imgParams, 0.0, false)

	right := pigo.Puploc{
		Row:      det.Row - int(0.075*float32(det.Scale)),
		Col:      det.Col + int(0.185*float32(det.Scale)),
		Scale:    float32(det.Scale) * 0.25,
		Perturbs: puplocPerturbs,
	}
	rightEye := assets.puploc.RunDetector(right, imgParams, 0.0, false)

	face.LeftPupil = Point{X: float64(leftEye.Col), Y: float64(leftEye.Row)}
	face.RightPupil = Point{X: float64(rightEye.Col), Y: float64(rightEye.Row)}

	for _, name := range eyeCascadeNames {
		cascade := assets.eyes[name]
		if flp := cascade.GetLandmarkPoint(leftEye, rightEye, imgParams, puplocPerturbs, false); flp.Row > 0 && flp.Col > 0 {
			face.LeftEye = append(face.LeftEye, Point{X: float64(flp.Col), Y: float64(flp.Row)})
		}
		if flp := cascade.GetLandmarkPoint(leftEye, rightEye, imgParams, puplocPerturbs, true); flp.Row > 0 && flp.Col > 0 {
			face.RightEye = append(face.RightEye, Point{X: float64(flp.Col), Y: float64(flp.Row)})
		}
	}

	for _, name := range mouthCascadeNames {
		cascade := assets.mouth[name]
		if flp := cascade.GetLandmarkPoint(leftEye, rightEye, imgParams, puplocPerturbs, false); flp.Row > 0 && flp.Col > 0 {
			face.MouthPoints = append(face.MouthPoints, Point{X: float64(flp.Col), Y: float64(flp.Row)})
		}
	}
	// The mouth corner cascade is symmetric: the flipped run gives the
	// opposite corner.
	if flp := assets.mouth["lp84"].GetLandmarkPoint(leftEye, rightEye, imgParams, puplocPerturbs, true); flp.Row > 0 && flp.Col > 0 {
		face.MouthPoints = append(face.MouthPoints, Point{X: float64(flp.Col), Y: float64(flp.Row)})
	}

	return face
}

// downscale resizes so the longer side fits within inputSize, returning the
// scale factor to map detections back to source coordinates.
func downscale(src *image.NRGBA, inputSize int) (*image.NRGBA, float64) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longer := max(w, h)
	if inputSize <= 0 || longer <= inputSize {
		return src, 1
	}

	factor := float64(longer) / float64(inputSize)
	dw := int(float64(w) / factor)
	dh := int(float64(h) / factor)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		sy := bounds.Min.Y + int(float64(y)*factor)
		for x := 0; x < dw; x++ {
			sx := bounds.Min.X + int(float64(x)*factor)
			dst.SetNRGBA(x, y, src.NRGBAAt(sx, sy))
		}
	}
	return dst, factor
}

// rescale maps a face from scaled detection space back to source
// coordinates.
func rescale(face Face, factor float64) Face {
	if factor == 1 {
		return face
	}
	scalePoint := func(p Point) Point {
		return Point{X: p.X * factor, Y: p.Y * factor}
	}
	face.Bounds.X = int(float64(face.Bounds.X) * factor)
	face.Bounds.Y = int(float64(face.Bounds.Y) * factor)
	face.Bounds.Width = int(float64(face.Bounds.Width) * factor)
	face.Bounds.Height = int(float64(face.Bounds.Height) * factor)
	face.LeftPupil = scalePoint(face.LeftPupil)
	face.RightPupil = scalePoint(face.RightPupil)
	for i := range face.LeftEye {
		face.LeftEye[i] = scalePoint(face.LeftEye[i])
	}
	for i := range face.RightEye {
		face.RightEye[i] = scalePoint(face.RightEye[i])
	}
	for i := range face.MouthPoints {
		face.MouthPoints[i] = scalePoint(face.MouthPoints[i])
	}
	return face
}
