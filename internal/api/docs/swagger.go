package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// DetectRequestBody is the detection request payload
type DetectRequestBody struct {
	Image string `json:"image" example:"data:image/png;base64,iVBORw0KGgo..."`
}

// FacialAnalysisData holds landmark-path sub-scores
type FacialAnalysisData struct {
	EyeFatigue    float64 `json:"eyeFatigue" example:"0.35"`
	BrowTension   float64 `json:"browTension" example:"0.2"`
	MouthTension  float64 `json:"mouthTension" example:"0.4"`
	DarkCircles   float64 `json:"darkCircles" example:"0.15"`
	FatigueScore  float64 `json:"fatigueScore" example:"0.31"`
	OverallStress float64 `json:"overallStress" example:"0.28"`
}

// DetectionResultData is the canonical detection output
type DetectionResultData struct {
	Emotion         string              `json:"emotion" example:"Neutral"`
	StressLevel     string              `json:"stressLevel" example:"Low"`
	EyeStrain       string              `json:"eyeStrain" example:"Mild"`
	BrowTension     string              `json:"browTension" example:"Normal"`
	FacialFatigue   string              `json:"facialFatigue" example:"Mild"`
	Confidence      int                 `json:"confidence" example:"72"`
	DetectionMethod string              `json:"detectionMethod" example:"cnn-backend"`
	FaceDetected    bool                `json:"faceDetected" example:"true"`
	AllPredictions  map[string]int      `json:"allPredictions"`
	FacesCount      int                 `json:"facesCount" example:"1"`
	CombinedStress  string              `json:"combinedStressLevel" example:"Low"`
	ReliefUrgency   int                 `json:"reliefUrgency" example:"3"`
	FacialAnalysis  *FacialAnalysisData `json:"facialAnalysis,omitempty"`
}

// StressTrendData is the 7-day trend classification
type StressTrendData struct {
	Trend              string `json:"trend" example:"stable"`
	AvgStress          string `json:"avgStress" example:"Low"`
	PeakTimes          []int  `json:"peakTimes" example:"9,14,21"`
	TotalScansThisWeek int    `json:"totalScansThisWeek" example:"12"`
	ImprovementRate    int    `json:"improvementRate" example:"17"`
}

// DetectResponseBody bundles result, scan id and trend
type DetectResponseBody struct {
	ScanID string              `json:"scanId" example:"550e8400-e29b-41d4-a716-446655440000"`
	Result DetectionResultData `json:"result"`
	Trend  StressTrendData     `json:"trend"`
}

// ScanData is one stored scan log entry
type ScanData struct {
	ID              string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID          string `json:"userId" example:"user-123"`
	Emotion         string `json:"emotion" example:"Happy"`
	StressLevel     string `json:"stressLevel" example:"Low"`
	Confidence      int    `json:"confidence" example:"74"`
	DetectionMethod string `json:"detectionMethod" example:"landmark-geometry"`
	ReliefUrgency   int    `json:"reliefUrgency" example:"2"`
	CreatedAt       string `json:"createdAt" example:"2026-08-01T10:00:00Z"`
}

// HistoryResponseBody wraps the scan history listing
type HistoryResponseBody struct {
	Scans []ScanData `json:"scans"`
	Count int        `json:"count" example:"2"`
}

// ScanMatchData is one similarity search hit
type ScanMatchData struct {
	Scan       ScanData `json:"scan"`
	Similarity float64  `json:"similarity" example:"0.94"`
}

// SimilarResponseBody wraps the similarity search listing
type SimilarResponseBody struct {
	Matches []ScanMatchData `json:"matches"`
	Count   int             `json:"count" example:"1"`
}

// ModelMetricsData reports classifier evaluation figures
type ModelMetricsData struct {
	Accuracy            float64 `json:"accuracy" example:"89.0"`
	ClassificationError float64 `json:"classificationError" example:"11.0"`
	Sensitivity         float64 `json:"sensitivity" example:"87.5"`
	Specificity         float64 `json:"specificity" example:"90.2"`
	FalsePositiveRate   float64 `json:"falsePositiveRate" example:"9.8"`
	Precision           float64 `json:"precision" example:"88.3"`
	SampleSize          int     `json:"sampleSize" example:"35887"`
}

// HealthResponseBody is the health probe response
type HealthResponseBody struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
	Backend string `json:"backend,omitempty" example:"available"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Sereno Stress Detection API",
		Version:     "v1.0.0",
		Description: "Facial stress inference API with a remote CNN backend and local landmark and pixel fallbacks",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	userIDHeader := parameter.StrParam("X-User-ID", parameter.Header,
		parameter.WithDescription("Caller identity used to partition scan history (defaults to anonymous)"))

	endpoints := []*endpoint.EndPoint{
		// POST /v1/detect - run detection
		endpoint.New(
			endpoint.POST,
			"/detect",
			endpoint.WithTags("Detection"),
			endpoint.WithSummary("Run stress detection on one frame"),
			endpoint.WithDescription("Runs the analyzer chain (remote CNN, then landmark geometry, then pixel heuristics) on a base64 data-URL frame, appends the result to the caller's scan log and returns the recomputed trend."),
			endpoint.WithBody(DetectRequestBody{}),
			endpoint.WithParams(userIDHeader),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DetectResponseBody{}, "200", "Detection completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_IMAGE", Message: "No image data provided"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "No face detected"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/history - scan history
		endpoint.New(
			endpoint.GET,
			"/history",
			endpoint.WithTags("History"),
			endpoint.WithSummary("List recent scans"),
			endpoint.WithDescription("Returns the caller's most recent scans, newest first."),
			endpoint.WithParams(
				userIDHeader,
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum entries to return (default 20, max 100)")),
			),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HistoryResponseBody{}, "200", "History listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/trends - stress trend
		endpoint.New(
			endpoint.GET,
			"/trends",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Compute the 7-day stress trend"),
			endpoint.WithDescription("Classifies the caller's last week of scans as improving, worsening or stable, with average stress and peak hours."),
			endpoint.WithParams(userIDHeader),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StressTrendData{}, "200", "Trend computed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/scans/{id}/similar - similarity search
		endpoint.New(
			endpoint.GET,
			"/scans/{id}/similar",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Find scans similar to a reference scan"),
			endpoint.WithDescription("Returns stored scans closest to the reference scan by cosine similarity of their emotion probability vectors."),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Reference scan UUID")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum matches to return (default 5, max 20)")),
			),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SimilarResponseBody{}, "200", "Similar scans listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid scan id"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "SCAN_NOT_FOUND", Message: "Scan not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/model-metrics - classifier evaluation
		endpoint.New(
			endpoint.GET,
			"/model-metrics",
			endpoint.WithTags("Model"),
			endpoint.WithSummary("Remote classifier evaluation figures"),
			endpoint.WithDescription("Returns the remote model's evaluation metrics, cached briefly. Falls back to the bundled baseline when the backend is unreachable."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ModelMetricsData{}, "200", "Metrics returned"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)
	return sw
}
