package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

func TestRepository_Rollup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)
	since := time.Now().Add(-48 * time.Hour)

	mock.ExpectExec("INSERT INTO scan_metrics_daily").
		WithArgs(since).
		WillReturnResult(pgxmock.NewResult("INSERT", 4))

	upserted, err := repo.Rollup(context.Background(), since)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), upserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Rollup_DBError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)
	since := time.Now()

	mock.ExpectExec("INSERT INTO scan_metrics_daily").
		WithArgs(since).
		WillReturnError(errors.New("connection refused"))

	_, err = repo.Rollup(context.Background(), since)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)

	day1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	start := day1
	end := day2.Add(24 * time.Hour)

	rows := pgxmock.NewRows([]string{"day", "detection_method", "stress_level", "scan_count", "avg_confidence"}).
		AddRow(day1, domain.MethodRemoteCNN, domain.StressLow, int64(12), 82.5).
		AddRow(day1, domain.MethodLandmark, domain.StressMedium, int64(3), 45.0).
		AddRow(day2, domain.MethodRemoteCNN, domain.StressHigh, int64(1), 91.0)

	mock.ExpectQuery("SELECT day, detection_method, stress_level, scan_count, avg_confidence FROM scan_metrics_daily").
		WithArgs(start, end).
		WillReturnRows(rows)

	metrics, err := repo.ListRange(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, metrics, 3)

	assert.Equal(t, day1, metrics[0].Day)
	assert.Equal(t, domain.MethodRemoteCNN, metrics[0].DetectionMethod)
	assert.Equal(t, domain.StressLow, metrics[0].StressLevel)
	assert.Equal(t, int64(12), metrics[0].ScanCount)
	assert.InDelta(t, 82.5, metrics[0].AvgConfidence, 0.001)
	assert.Equal(t, domain.StressHigh, metrics[2].StressLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteOldMetrics(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)

	mock.ExpectExec("DELETE FROM scan_metrics_daily").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	deleted, err := repo.DeleteOldMetrics(context.Background(), 90*24*time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
