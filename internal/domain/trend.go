package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrendClass classifies the direction of the recent stress history.
type TrendClass string

const (
	TrendImproving        TrendClass = "improving"
	TrendWorsening        TrendClass = "worsening"
	TrendStable           TrendClass = "stable"
	TrendInsufficientData TrendClass = "insufficient_data"
)

// StressTrend is derived from the stored scan history on every detection.
// It is never persisted itself.
type StressTrend struct {
	Trend              TrendClass   `json:"trend"`
	AvgStress          *StressLevel `json:"avgStress"`
	PeakTimes          []int        `json:"peakTimes"`
	TotalScansThisWeek int          `json:"totalScansThisWeek"`
	ImprovementRate    int          `json:"improvementRate"`
}

// Scan is one entry of the append-only result log. Created once per detection
// and never mutated afterwards.
type Scan struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"userId"`
	Emotion         Emotion         `json:"emotion"`
	StressLevel     StressLevel     `json:"stressLevel"`
	EyeStrain       FeatureLevel    `json:"eyeStrain"`
	BrowTension     FeatureLevel    `json:"browTension"`
	FacialFatigue   FeatureLevel    `json:"facialFatigue"`
	Confidence      int             `json:"confidence"`
	DetectionMethod string          `json:"detectionMethod"`
	ReliefUrgency   int             `json:"reliefUrgency"`
	Probabilities   []float32       `json:"-"`
	Predictions     map[Emotion]int `json:"allPredictions,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ProbabilityVector flattens a prediction map into the fixed 7-dim vector
// stored for similarity lookups, in canonical emotion order.
func ProbabilityVector(predictions map[Emotion]int) []float32 {
	vec := make([]float32, len(Emotions))
	for i, e := range Emotions {
		vec[i] = float32(predictions[e]) / 100
	}
	return vec
}

// ScanMatch is one similarity-search hit, ordered by descending cosine
// similarity of the probability vectors.
type ScanMatch struct {
	Scan       Scan    `json:"scan"`
	Similarity float64 `json:"similarity"`
}

// ModelMetrics reports the remote classifier evaluation figures surfaced on
// the model-metrics endpoint.
type ModelMetrics struct {
	Accuracy            float64 `json:"accuracy"`
	ClassificationError float64 `json:"classificationError"`
	Sensitivity         float64 `json:"sensitivity"`
	Specificity         float64 `json:"specificity"`
	FalsePositiveRate   float64 `json:"falsePositiveRate"`
	Precision           float64 `json:"precision"`
	SampleSize          int     `json:"sampleSize"`
}
