package cnn

import "github.com/saturnino-fabrica-de-software/sereno/internal/domain"

// DetectRequest for POST /api/detect/
type DetectRequest struct {
	Image string `json:"image"` // data-URL encoded image
}

// FaceEntry is one face of the multi-face response.
type FaceEntry struct {
	FaceID         int                `json:"faceId"`
	Emotion        string             `json:"emotion"`
	StressLevel    string             `json:"stressLevel"`
	Confidence     float64            `json:"confidence"`
	BoundingBox    domain.BoundingBox `json:"boundingBox"`
	AllPredictions map[string]float64 `json:"allPredictions"`
}

// DetectResponse from POST /api/detect/
type DetectResponse struct {
	Success        bool               `json:"success"`
	Error          string             `json:"error,omitempty"`
	Emotion        string             `json:"emotion"`
	StressLevel    string             `json:"stressLevel"`
	Confidence     *float64           `json:"confidence,omitempty"`
	EyeStrain      string             `json:"eyeStrain,omitempty"`
	BrowTension    string             `json:"browTension,omitempty"`
	FacialFatigue  string             `json:"facialFatigue,omitempty"`
	FaceDetected   bool               `json:"faceDetected"`
	AllPredictions map[string]float64 `json:"allPredictions"`
	FacesCount     *int               `json:"facesCount,omitempty"`
	AllFaces       []FaceEntry        `json:"allFaces,omitempty"`
	CombinedStress string             `json:"combinedStressLevel,omitempty"`
}

// HealthResponse from GET /api/health/
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service,omitempty"`
	ModelLoaded bool   `json:"model_loaded,omitempty"`
}

// KNNResultsResponse from GET /api/knn-results/
type KNNResultsResponse struct {
	Success             bool    `json:"success"`
	Accuracy            float64 `json:"accuracy"`
	ClassificationError float64 `json:"classificationError"`
	Sensitivity         float64 `json:"sensitivity"`
	Specificity         float64 `json:"specificity"`
	FalsePositiveRate   float64 `json:"falsePositiveRate"`
	Precision           float64 `json:"precision"`
	SampleSize          int     `json:"sampleSize"`
}

// StubMetrics is returned when the remote evaluation endpoint is
// unreachable.
var StubMetrics = domain.ModelMetrics{
	Accuracy:            89.0,
	ClassificationError: 11.0,
	Sensitivity:         87.5,
	Specificity:         90.2,
	FalsePositiveRate:   9.8,
	Precision:           88.3,
	SampleSize:          35887,
}
