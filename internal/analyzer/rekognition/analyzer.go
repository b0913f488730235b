// Package rekognition implements the remote analysis path on AWS
// Rekognition, used when the inference backend is swapped for the managed
// service.
package rekognition

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer"
	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
)

const (
	// maxImageSize is the Rekognition request limit (5MB).
	maxImageSize = 5 * 1024 * 1024
	// minImageSize rejects obviously truncated payloads.
	minImageSize = 100
)

// Config holds the AWS Rekognition analyzer configuration.
type Config struct {
	// Region is the AWS region (e.g. "us-east-1").
	Region string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{Region: "us-east-1"}
}

// DetectFacesAPI is the subset of the Rekognition client used here.
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// emotionNames maps the Rekognition emotion vocabulary onto the canonical
// seven categories. CALM and CONFUSED both fold into Neutral.
var emotionNames = map[types.EmotionName]domain.Emotion{
	types.EmotionNameAngry:     domain.EmotionAngry,
	types.EmotionNameDisgusted: domain.EmotionDisgusted,
	types.EmotionNameFear:      domain.EmotionFearful,
	types.EmotionNameHappy:     domain.EmotionHappy,
	types.EmotionNameSad:       domain.EmotionSad,
	types.EmotionNameSurprised: domain.EmotionSurprised,
	types.EmotionNameCalm:      domain.EmotionNeutral,
	types.EmotionNameConfused:  domain.EmotionNeutral,
}

// Analyzer is the Rekognition-backed remote analysis path.
type Analyzer struct {
	api DetectFacesAPI
}

// NewAnalyzer creates the analyzer using the AWS default credential chain.
func NewAnalyzer(ctx context.Context, cfg Config) (*Analyzer, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultConfig().Region
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Analyzer{api: rekognition.NewFromConfig(awsCfg)}, nil
}

// NewAnalyzerWithAPI wires a custom API implementation, used by tests.
func NewAnalyzerWithAPI(api DetectFacesAPI) *Analyzer {
	return &Analyzer{api: api}
}

func (a *Analyzer) Name() string {
	return domain.MethodRekognition
}

// Analyze sends the image to Rekognition DetectFaces and converts the
// emotion confidences into the canonical result. A (nil, nil) return means
// no face was found and the caller should fall through.
func (a *Analyzer) Analyze(ctx context.Context, frame *imaging.Frame) (*domain.DetectionResult, error) {
	image := frame.Bytes()
	if err := validateImage(image); err != nil {
		return nil, err
	}

	input := &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeAll},
	}

	output, err := a.api.DetectFaces(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: detect faces: %v", domain.ErrRemoteHTTP, err)
	}
	if len(output.FaceDetails) == 0 {
		return nil, nil
	}

	return a.mapFaces(output.FaceDetails, frame), nil
}

func validateImage(image []byte) error {
	if len(image) == 0 {
		return domain.ErrImageDecode
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes)", domain.ErrImageDecode, len(image))
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes)", domain.ErrImageDecode, len(image))
	}
	return nil
}

func (a *Analyzer) mapFaces(details []types.FaceDetail, frame *imaging.Frame) *domain.DetectionResult {
	width, height := frame.Size()

	primary := details[0]
	predictions := emotionPredictions(primary.Emotions)
	emotion := domain.DominantEmotion(predictions)
	stress := domain.StressFromEmotion(emotion)

	result := &domain.DetectionResult{
		Emotion:         emotion,
		StressLevel:     stress,
		EyeStrain:       domain.FeatureFromScore(eyeStrainScore(primary)),
		BrowTension:     domain.FeatureFromScore(float64(predictions[domain.EmotionAngry]) / 100),
		FacialFatigue:   domain.FeatureFromScore(fatigueScore(primary, predictions)),
		Confidence:      int(math.Round(float64(predictions[emotion])*0.85 + 15)),
		DetectionMethod: domain.MethodRekognition,
		FaceDetected:    true,
		AllPredictions:  predictions,
		FacesCount:      len(details),
	}

	for i, detail := range details {
		facePredictions := predictions
		if i > 0 {
			facePredictions = emotionPredictions(detail.Emotions)
		}
		faceEmotion := domain.DominantEmotion(facePredictions)
		faceStress := domain.StressFromEmotion(faceEmotion)

		face := domain.FaceResult{
			FaceID:      i,
			Emotion:     faceEmotion,
			StressLevel: faceStress,
			Confidence:  float64(facePredictions[faceEmotion]),
			BoundingBox: toPixelBox(detail.BoundingBox, width, height),
		}
		if i == 0 {
			face.AllPredictions = facePredictions
		}
		result.AllFaces = append(result.AllFaces, face)
	}
	result.CombinedStress = domain.CombinedStressLevel(result.AllFaces)

	return result
}

// emotionPredictions folds the Rekognition confidences into the canonical
// categories, summing where two source emotions map to one target.
func emotionPredictions(emotions []types.Emotion) map[domain.Emotion]int {
	scores := make(map[domain.Emotion]float64, len(domain.Emotions))
	for _, e := range emotions {
		target, ok := emotionNames[e.Type]
		if !ok || e.Confidence == nil {
			continue
		}
		scores[target] += float64(*e.Confidence)
	}

	predictions := make(map[domain.Emotion]int, len(scores))
	for emotion, score := range scores {
		if score > 100 {
			score = 100
		}
		predictions[emotion] = int(math.Round(score))
	}
	return predictions
}

// eyeStrainScore reads the EyesOpen attribute: closed or uncertain eyes
// score high.
func eyeStrainScore(detail types.FaceDetail) float64 {
	if detail.EyesOpen == nil {
		return 0.3
	}
	if !detail.EyesOpen.Value {
		return 0.7
	}
	return 0.1
}

func fatigueScore(detail types.FaceDetail, predictions map[domain.Emotion]int) float64 {
	return (eyeStrainScore(detail) + float64(predictions[domain.EmotionSad])/100) / 2
}

// toPixelBox converts the relative Rekognition bounding box into image
// coordinates. Unknown frame dimensions leave the box empty.
func toPixelBox(box *types.BoundingBox, width, height int) domain.BoundingBox {
	if box == nil || width == 0 || height == 0 {
		return domain.BoundingBox{}
	}
	return domain.BoundingBox{
		X:      int(float64(aws.ToFloat32(box.Left)) * float64(width)),
		Y:      int(float64(aws.ToFloat32(box.Top)) * float64(height)),
		Width:  int(float64(aws.ToFloat32(box.Width)) * float64(width)),
		Height: int(float64(aws.ToFloat32(box.Height)) * float64(height)),
	}
}

var _ analyzer.StressAnalyzer = (*Analyzer)(nil)
