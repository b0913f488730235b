package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

type ScanRepository struct {
	pool PgxPool
}

func NewScanRepository(pool PgxPool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

const scanColumns = `id, user_id, emotion, stress_level, eye_strain, brow_tension,
		facial_fatigue, confidence, detection_method, relief_urgency,
		probabilities, predictions, created_at`

func (r *ScanRepository) Create(ctx context.Context, scan *domain.Scan) error {
	query := `
		INSERT INTO scans (id, user_id, emotion, stress_level, eye_strain, brow_tension,
			facial_fatigue, confidence, detection_method, relief_urgency, probabilities, predictions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING created_at
	`

	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}

	var probabilities *pgvector.Vector
	if len(scan.Probabilities) > 0 {
		vec := pgvector.NewVector(scan.Probabilities)
		probabilities = &vec
	}

	err := r.pool.QueryRow(ctx, query,
		scan.ID,
		scan.UserID,
		scan.Emotion,
		scan.StressLevel,
		scan.EyeStrain,
		scan.BrowTension,
		scan.FacialFatigue,
		scan.Confidence,
		scan.DetectionMethod,
		scan.ReliefUrgency,
		probabilities,
		scan.Predictions,
	).Scan(&scan.CreatedAt)

	if err != nil {
		return fmt.Errorf("create scan: %w", err)
	}

	return nil
}

func (r *ScanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Scan, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM scans
		WHERE id = $1
	`

	scan, err := r.scanRow(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan by id: %w", err)
	}

	return scan, nil
}

// ListSince returns a user's scans created at or after the cutoff, oldest
// first. The trend computation consumes this ordering directly.
func (r *ScanRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]domain.Scan, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM scans
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list scans since: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListRecent returns a user's newest scans, newest first.
func (r *ScanRepository) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Scan, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM scans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent scans: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListSimilar finds the scans whose probability vectors are closest to the
// given scan's, by cosine similarity. The reference scan itself is excluded.
func (r *ScanRepository) ListSimilar(ctx context.Context, id uuid.UUID, limit int) ([]domain.ScanMatch, error) {
	reference, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(reference.Probabilities) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + scanColumns + `,
			1 - (probabilities <=> $1) AS similarity
		FROM scans
		WHERE id != $2 AND probabilities IS NOT NULL
		ORDER BY probabilities <=> $1
		LIMIT $3
	`

	vec := pgvector.NewVector(reference.Probabilities)
	rows, err := r.pool.Query(ctx, query, vec, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list similar scans: %w", err)
	}
	defer rows.Close()

	var matches []domain.ScanMatch
	for rows.Next() {
		var scan domain.Scan
		var probabilities *pgvector.Vector
		var similarity float64

		err := rows.Scan(
			&scan.ID,
			&scan.UserID,
			&scan.Emotion,
			&scan.StressLevel,
			&scan.EyeStrain,
			&scan.BrowTension,
			&scan.FacialFatigue,
			&scan.Confidence,
			&scan.DetectionMethod,
			&scan.ReliefUrgency,
			&probabilities,
			&scan.Predictions,
			&scan.CreatedAt,
			&similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan similar row: %w", err)
		}
		if probabilities != nil {
			scan.Probabilities = probabilities.Slice()
		}

		matches = append(matches, domain.ScanMatch{Scan: scan, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar rows: %w", err)
	}

	return matches, nil
}

// CountSince returns how many scans a user recorded at or after the cutoff.
func (r *ScanRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM scans
		WHERE user_id = $1 AND created_at >= $2
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count scans since: %w", err)
	}

	return count, nil
}

func (r *ScanRepository) scanRow(row pgx.Row) (*domain.Scan, error) {
	var scan domain.Scan
	var probabilities *pgvector.Vector

	err := row.Scan(
		&scan.ID,
		&scan.UserID,
		&scan.Emotion,
		&scan.StressLevel,
		&scan.EyeStrain,
		&scan.BrowTension,
		&scan.FacialFatigue,
		&scan.Confidence,
		&scan.DetectionMethod,
		&scan.ReliefUrgency,
		&probabilities,
		&scan.Predictions,
		&scan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if probabilities != nil {
		scan.Probabilities = probabilities.Slice()
	}

	return &scan, nil
}

func (r *ScanRepository) collect(rows pgx.Rows) ([]domain.Scan, error) {
	var scans []domain.Scan
	for rows.Next() {
		scan, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, *scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return scans, nil
}
