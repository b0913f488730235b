package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer/cnn"
	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
	"github.com/saturnino-fabrica-de-software/sereno/internal/insights"
	"github.com/saturnino-fabrica-de-software/sereno/internal/repository"
)

// modelMetricsCacheKey fronts the remote evaluation endpoint.
const modelMetricsCacheKey = "model_metrics:remote"

// historyWindow is the lookback used for trend computation.
const historyWindow = 7 * 24 * time.Hour

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultSimilarLimit = 5
	maxSimilarLimit     = 20
)

type Detector interface {
	Detect(ctx context.Context, frame *imaging.Frame) (*domain.DetectionResult, error)
}

type RateLimiterInterface interface {
	CheckDetectLimit(ctx context.Context, userID string, limit int) error
}

type MetricsCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MetricsSource exposes the remote classifier evaluation figures. Nil when
// the configured provider has no evaluation endpoint.
type MetricsSource interface {
	KNNResults(ctx context.Context) (*domain.ModelMetrics, error)
}

// DetectionOutcome bundles the detection result with the scan log entry and
// the trend recomputed over the updated history.
type DetectionOutcome struct {
	ScanID uuid.UUID               `json:"scanId"`
	Result *domain.DetectionResult `json:"result"`
	Trend  domain.StressTrend      `json:"trend"`
}

type DetectionService struct {
	detector   Detector
	scans      repository.ScanRepositoryInterface
	limiter    RateLimiterInterface
	cache      MetricsCache
	metrics    MetricsSource
	logger     *slog.Logger
	rateLimit  int
	metricsTTL time.Duration
	now        func() time.Time
}

func NewDetectionService(
	detector Detector,
	scans repository.ScanRepositoryInterface,
	limiter RateLimiterInterface,
	metricsCache MetricsCache,
	metrics MetricsSource,
	logger *slog.Logger,
) *DetectionService {
	if logger == nil {
		logger = slog.Default()
	}

	return &DetectionService{
		detector:   detector,
		scans:      scans,
		limiter:    limiter,
		cache:      metricsCache,
		metrics:    metrics,
		logger:     logger,
		rateLimit:  60,
		metricsTTL: 5 * time.Minute,
		now:        time.Now,
	}
}

// WithRateLimit sets the per-user detections-per-window limit. Zero disables
// rate limiting.
func (s *DetectionService) WithRateLimit(limit int) *DetectionService {
	s.rateLimit = limit
	return s
}

// WithMetricsTTL sets how long remote model metrics are cached.
func (s *DetectionService) WithMetricsTTL(ttl time.Duration) *DetectionService {
	s.metricsTTL = ttl
	return s
}

// Detect runs the analyzer chain on one frame, appends the result to the
// user's scan log and recomputes their stress trend.
func (s *DetectionService) Detect(ctx context.Context, userID string, frame *imaging.Frame) (*DetectionOutcome, error) {
	if s.limiter != nil {
		if err := s.limiter.CheckDetectLimit(ctx, userID, s.rateLimit); err != nil {
			return nil, err
		}
	}

	result, err := s.detector.Detect(ctx, frame)
	if err != nil {
		return nil, err
	}

	result.ReliefUrgency = insights.ReliefUrgency(
		result.StressLevel,
		result.Emotion,
		result.EyeStrain,
		result.BrowTension,
		result.FacialFatigue,
	)

	now := s.now()
	scan := &domain.Scan{
		ID:              uuid.New(),
		UserID:          userID,
		Emotion:         result.Emotion,
		StressLevel:     result.StressLevel,
		EyeStrain:       result.EyeStrain,
		BrowTension:     result.BrowTension,
		FacialFatigue:   result.FacialFatigue,
		Confidence:      result.Confidence,
		DetectionMethod: result.DetectionMethod,
		ReliefUrgency:   result.ReliefUrgency,
		Probabilities:   domain.ProbabilityVector(result.AllPredictions),
		Predictions:     result.AllPredictions,
		CreatedAt:       now,
	}

	if err := s.scans.Create(ctx, scan); err != nil {
		return nil, err
	}

	history, err := s.scans.ListSince(ctx, userID, now.Add(-historyWindow))
	if err != nil {
		// The detection itself succeeded; degrade to a single-entry trend.
		s.logger.Warn("failed to load scan history for trend",
			"user_id", userID, "error", err)
		history = []domain.Scan{*scan}
	}

	return &DetectionOutcome{
		ScanID: scan.ID,
		Result: result,
		Trend:  insights.ComputeTrend(history, now),
	}, nil
}

// History returns the user's most recent scans, newest first.
func (s *DetectionService) History(ctx context.Context, userID string, limit int) ([]domain.Scan, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.scans.ListRecent(ctx, userID, limit)
}

// Trend recomputes the 7-day stress trend from the stored history.
func (s *DetectionService) Trend(ctx context.Context, userID string) (domain.StressTrend, error) {
	now := s.now()
	history, err := s.scans.ListSince(ctx, userID, now.Add(-historyWindow))
	if err != nil {
		return domain.StressTrend{}, err
	}
	return insights.ComputeTrend(history, now), nil
}

// Similar returns stored scans closest to the reference scan by cosine
// similarity of their probability vectors.
func (s *DetectionService) Similar(ctx context.Context, scanID uuid.UUID, limit int) ([]domain.ScanMatch, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}
	return s.scans.ListSimilar(ctx, scanID, limit)
}

// ModelMetrics returns the remote classifier evaluation figures, cached for
// metricsTTL. Falls back to the bundled baseline when no remote source is
// configured or the remote call fails.
func (s *DetectionService) ModelMetrics(ctx context.Context) (domain.ModelMetrics, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, modelMetricsCacheKey); err == nil {
			var metrics domain.ModelMetrics
			if err := json.Unmarshal(data, &metrics); err == nil {
				return metrics, nil
			}
			s.logger.Warn("discarding corrupt cached model metrics", "error", err)
		}
	}

	metrics := s.fetchMetrics(ctx)

	if s.cache != nil {
		data, err := json.Marshal(metrics)
		if err == nil {
			if err := s.cache.Set(ctx, modelMetricsCacheKey, data, s.metricsTTL); err != nil {
				s.logger.Warn("failed to cache model metrics", "error", err)
			}
		}
	}

	return metrics, nil
}

func (s *DetectionService) fetchMetrics(ctx context.Context) domain.ModelMetrics {
	if s.metrics == nil {
		return cnn.StubMetrics
	}

	metrics, err := s.metrics.KNNResults(ctx)
	if err != nil {
		s.logger.Warn("remote model metrics unavailable, using baseline", "error", err)
		return cnn.StubMetrics
	}
	return *metrics
}
