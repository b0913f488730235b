package cnn

import (
	"context"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer"
	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

// defaultConfidence applies when the remote response omits the field.
const defaultConfidence = 85

// Analyzer implements analyzer.StressAnalyzer against the remote CNN
// service.
type Analyzer struct {
	client *Client
}

// NewAnalyzer creates a remote CNN analyzer
func NewAnalyzer(config Config) *Analyzer {
	return &Analyzer{client: NewClient(config)}
}

// NewAnalyzerWithClient wires an existing client, used by tests.
func NewAnalyzerWithClient(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) Name() string {
	return domain.MethodRemoteCNN
}

// Client exposes the underlying HTTP client so the probe and the
// model-metrics service can share the connection settings.
func (a *Analyzer) Client() *Client {
	return a.client
}

// Analyze forwards the raw payload to the remote service and maps its
// response into the canonical result shape.
func (a *Analyzer) Analyze(ctx context.Context, frame *imaging.Frame) (*domain.DetectionResult, error) {
	if frame == nil || frame.Raw == "" {
		return nil, fmt.Errorf("%w: no raw payload for remote inference", domain.ErrRemoteLogic)
	}

	resp, err := a.client.Detect(ctx, frame.Raw)
	if err != nil {
		return nil, err
	}

	return mapResponse(resp), nil
}

func mapResponse(resp *DetectResponse) *domain.DetectionResult {
	emotion := domain.NormalizeEmotion(resp.Emotion)

	stress := domain.StressLevel(resp.StressLevel)
	if stress == "" {
		stress = domain.StressFromEmotion(emotion)
	}

	confidence := defaultConfidence
	if resp.Confidence != nil {
		confidence = int(math.Round(*resp.Confidence))
	}

	result := &domain.DetectionResult{
		Emotion:         emotion,
		StressLevel:     stress,
		EyeStrain:       featureOrNormal(resp.EyeStrain),
		BrowTension:     featureOrNormal(resp.BrowTension),
		FacialFatigue:   featureOrNormal(resp.FacialFatigue),
		Confidence:      confidence,
		DetectionMethod: domain.MethodRemoteCNN,
		FaceDetected:    resp.FaceDetected,
		AllPredictions:  normalizePredictions(resp.AllPredictions),
		FacesCount:      1,
		CombinedStress:  stress,
	}

	// Multi-face fields default to the single-face values when absent.
	if resp.FacesCount != nil {
		result.FacesCount = *resp.FacesCount
	}
	if resp.CombinedStress != "" {
		result.CombinedStress = domain.StressLevel(resp.CombinedStress)
	}
	for _, face := range resp.AllFaces {
		faceEmotion := domain.NormalizeEmotion(face.Emotion)
		faceStress := domain.StressLevel(face.StressLevel)
		if faceStress == "" {
			faceStress = domain.StressFromEmotion(faceEmotion)
		}
		result.AllFaces = append(result.AllFaces, domain.FaceResult{
			FaceID:         face.FaceID,
			Emotion:        faceEmotion,
			StressLevel:    faceStress,
			Confidence:     face.Confidence,
			BoundingBox:    face.BoundingBox,
			AllPredictions: normalizePredictions(face.AllPredictions),
		})
	}

	return result
}

func featureOrNormal(raw string) domain.FeatureLevel {
	if raw == "" {
		return domain.FeatureNormal
	}
	return domain.FeatureLevel(raw)
}

func normalizePredictions(raw map[string]float64) map[domain.Emotion]int {
	if len(raw) == 0 {
		return map[domain.Emotion]int{}
	}
	out := make(map[domain.Emotion]int, len(raw))
	for name, pct := range raw {
		out[domain.NormalizeEmotion(name)] = int(math.Round(pct))
	}
	return out
}

// Ensure Analyzer implements analyzer.StressAnalyzer
var _ analyzer.StressAnalyzer = (*Analyzer)(nil)
