package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// ScanRepositoryInterface defines operations for the scan history log
type ScanRepositoryInterface interface {
	Create(ctx context.Context, scan *domain.Scan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Scan, error)
	ListSince(ctx context.Context, userID string, since time.Time) ([]domain.Scan, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]domain.Scan, error)
	ListSimilar(ctx context.Context, id uuid.UUID, limit int) ([]domain.ScanMatch, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}
