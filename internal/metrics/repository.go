package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// DailyMetric is a per-day rollup of scan activity, bucketed by detection
// method and stress level.
type DailyMetric struct {
	Day             time.Time
	DetectionMethod string
	StressLevel     domain.StressLevel
	ScanCount       int64
	AvgConfidence   float64
}

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// Repository handles database operations for daily scan metrics
type Repository struct {
	db DB
}

// NewRepository creates a new metrics repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// NewRepositoryWithDB creates a new metrics repository with custom DB interface
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// Rollup recomputes daily buckets for scans created at or after the cutoff.
// Buckets are upserted, so re-running over the same window is safe.
func (r *Repository) Rollup(ctx context.Context, since time.Time) (int64, error) {
	query := `
		INSERT INTO scan_metrics_daily (day, detection_method, stress_level, scan_count, avg_confidence)
		SELECT date_trunc('day', created_at) AS day,
		       detection_method,
		       stress_level,
		       COUNT(*),
		       AVG(confidence)
		FROM scans
		WHERE created_at >= $1
		GROUP BY day, detection_method, stress_level
		ON CONFLICT (day, detection_method, stress_level)
		DO UPDATE SET
			scan_count = EXCLUDED.scan_count,
			avg_confidence = EXCLUDED.avg_confidence,
			updated_at = NOW()
	`

	result, err := r.db.Exec(ctx, query, since)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

// ListRange retrieves daily metrics within a time range
func (r *Repository) ListRange(ctx context.Context, start, end time.Time) ([]DailyMetric, error) {
	query := `
		SELECT day, detection_method, stress_level, scan_count, avg_confidence
		FROM scan_metrics_daily
		WHERE day >= $1 AND day <= $2
		ORDER BY day ASC, detection_method, stress_level
	`

	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []DailyMetric
	for rows.Next() {
		var m DailyMetric
		err := rows.Scan(
			&m.Day,
			&m.DetectionMethod,
			&m.StressLevel,
			&m.ScanCount,
			&m.AvgConfidence,
		)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

// DeleteOldMetrics removes daily buckets older than the specified duration
func (r *Repository) DeleteOldMetrics(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM scan_metrics_daily
		WHERE day < $1
	`

	cutoff := time.Now().Add(-olderThan)
	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
