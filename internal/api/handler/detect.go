package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sereno/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
	"github.com/saturnino-fabrica-de-software/sereno/internal/imaging"
	"github.com/saturnino-fabrica-de-software/sereno/internal/service"
)

// maxImagePayload bounds the accepted data-URL length (~10MB of base64).
const maxImagePayload = 14 * 1024 * 1024

// DetectionService interface for the service
type DetectionService interface {
	Detect(ctx context.Context, userID string, frame *imaging.Frame) (*service.DetectionOutcome, error)
	History(ctx context.Context, userID string, limit int) ([]domain.Scan, error)
	Trend(ctx context.Context, userID string) (domain.StressTrend, error)
	Similar(ctx context.Context, scanID uuid.UUID, limit int) ([]domain.ScanMatch, error)
	ModelMetrics(ctx context.Context) (domain.ModelMetrics, error)
}

// DetectHandler handles detection and scan history requests
type DetectHandler struct {
	service DetectionService
	logger  *slog.Logger
}

// NewDetectHandler creates a new DetectHandler instance
func NewDetectHandler(service DetectionService, logger *slog.Logger) *DetectHandler {
	return &DetectHandler{
		service: service,
		logger:  logger,
	}
}

// DetectRequest is the detection request payload. UserID is a body-level
// fallback for clients that cannot set the identity header.
type DetectRequest struct {
	Image  string `json:"image"`
	UserID string `json:"userId,omitempty"`
}

// HistoryResponse wraps the scan history listing
type HistoryResponse struct {
	Scans []domain.Scan `json:"scans"`
	Count int           `json:"count"`
}

// SimilarResponse wraps the similarity search listing
type SimilarResponse struct {
	Matches []domain.ScanMatch `json:"matches"`
	Count   int                `json:"count"`
}

// Detect POST /v1/detect - run stress detection on one frame
func (h *DetectHandler) Detect(c *fiber.Ctx) error {
	var req DetectRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	image := strings.TrimSpace(req.Image)
	if image == "" {
		return domain.ErrNoImage
	}
	if len(image) > maxImagePayload {
		return domain.ErrInvalidImage.WithError(errors.New("image payload too large"))
	}

	userID := middleware.GetUserID(c)
	if userID == middleware.AnonymousUser {
		if bodyID := strings.TrimSpace(req.UserID); bodyID != "" {
			userID = bodyID
		}
	}

	// Decode here so every analyzer downstream sees pixel data. A payload
	// that fails to decode still goes through with its raw form intact;
	// the last-resort analyzer handles that case.
	frame, decodeErr := imaging.DecodeDataURL(image)
	if decodeErr != nil {
		h.logger.Debug("image decode failed, forwarding raw payload", "error", decodeErr)
	}

	outcome, err := h.service.Detect(c.Context(), userID, frame)
	if err != nil {
		if errors.Is(err, domain.ErrNoFaceDetected) {
			return domain.ErrValidationFailed.WithError(err)
		}
		if errors.Is(err, domain.ErrImageDecode) {
			return domain.ErrInvalidImage.WithError(err)
		}
		return err
	}

	return c.JSON(outcome)
}

// History GET /v1/history - list recent scans, newest first
func (h *DetectHandler) History(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit := c.QueryInt("limit", 0)

	scans, err := h.service.History(c.Context(), userID, limit)
	if err != nil {
		return err
	}

	return c.JSON(HistoryResponse{
		Scans: scans,
		Count: len(scans),
	})
}

// Trends GET /v1/trends - compute the 7-day stress trend
func (h *DetectHandler) Trends(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	trend, err := h.service.Trend(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(trend)
}

// Similar GET /v1/scans/:id/similar - nearest scans by probability vector
func (h *DetectHandler) Similar(c *fiber.Ctx) error {
	scanID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(errors.New("invalid scan id"))
	}

	matches, err := h.service.Similar(c.Context(), scanID, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(SimilarResponse{
		Matches: matches,
		Count:   len(matches),
	})
}

// ModelMetrics GET /v1/model-metrics - remote classifier evaluation figures
func (h *DetectHandler) ModelMetrics(c *fiber.Ctx) error {
	metrics, err := h.service.ModelMetrics(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(metrics)
}
