package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

var scanTestColumns = []string{
	"id", "user_id", "emotion", "stress_level", "eye_strain", "brow_tension",
	"facial_fatigue", "confidence", "detection_method", "relief_urgency",
	"probabilities", "predictions", "created_at",
}

func sampleScan(id uuid.UUID, createdAt time.Time) domain.Scan {
	return domain.Scan{
		ID:              id,
		UserID:          "user-123",
		Emotion:         domain.EmotionSad,
		StressLevel:     domain.StressHigh,
		EyeStrain:       domain.FeatureHigh,
		BrowTension:     domain.FeatureModerate,
		FacialFatigue:   domain.FeatureModerate,
		Confidence:      82,
		DetectionMethod: domain.MethodRemoteCNN,
		ReliefUrgency:   9,
		Probabilities:   []float32{0.1, 0.05, 0.6, 0.1, 0.05, 0.05, 0.05},
		Predictions:     map[domain.Emotion]int{domain.EmotionSad: 60, domain.EmotionNeutral: 10},
		CreatedAt:       createdAt,
	}
}

func addScanRow(rows *pgxmock.Rows, scan domain.Scan) *pgxmock.Rows {
	var probabilities *pgvector.Vector
	if len(scan.Probabilities) > 0 {
		vec := pgvector.NewVector(scan.Probabilities)
		probabilities = &vec
	}
	return rows.AddRow(
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
		scan.CreatedAt,
	)
}

func TestScanRepository_Create(t *testing.T) {
	scanID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		scan      domain.Scan
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   bool
	}{
		{
			name: "successful creation with probabilities",
			scan: sampleScan(scanID, time.Time{}),
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"created_at"}).AddRow(now)
				mock.ExpectQuery(`INSERT INTO scans`).
					WithArgs(
						scanID, "user-123", domain.EmotionSad, domain.StressHigh,
						domain.FeatureHigh, domain.FeatureModerate, domain.FeatureModerate,
						82, domain.MethodRemoteCNN, 9, pgxmock.AnyArg(), pgxmock.AnyArg(),
					).
					WillReturnRows(rows)
			},
			wantErr: false,
		},
		{
			name: "database error",
			scan: sampleScan(scanID, time.Time{}),
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO scans`).
					WithArgs(
						scanID, "user-123", domain.EmotionSad, domain.StressHigh,
						domain.FeatureHigh, domain.FeatureModerate, domain.FeatureModerate,
						82, domain.MethodRemoteCNN, 9, pgxmock.AnyArg(), pgxmock.AnyArg(),
					).
					WillReturnError(errors.New("connection lost"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewScanRepository(mock)
			scan := tt.scan
			err = repo.Create(context.Background(), &scan)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, now, scan.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestScanRepository_Create_GeneratesID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO scans`).
		WithArgs(
			pgxmock.AnyArg(), "user-123", domain.EmotionSad, domain.StressHigh,
			domain.FeatureHigh, domain.FeatureModerate, domain.FeatureModerate,
			82, domain.MethodRemoteCNN, 9, pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	repo := NewScanRepository(mock)
	scan := sampleScan(uuid.Nil, time.Time{})
	scan.ID = uuid.Nil

	require.NoError(t, repo.Create(context.Background(), &scan))
	assert.NotEqual(t, uuid.Nil, scan.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepository_GetByID(t *testing.T) {
	scanID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      *domain.Scan
		wantErr   error
	}{
		{
			name: "successful retrieval",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := addScanRow(pgxmock.NewRows(scanTestColumns), sampleScan(scanID, now))
				mock.ExpectQuery(`SELECT (.+) FROM scans WHERE id = \$1`).
					WithArgs(scanID).
					WillReturnRows(rows)
			},
			want: func() *domain.Scan { s := sampleScan(scanID, now); return &s }(),
		},
		{
			name: "scan not found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM scans WHERE id = \$1`).
					WithArgs(scanID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrScanNotFound,
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM scans WHERE id = \$1`).
					WithArgs(scanID).
					WillReturnError(errors.New("timeout"))
			},
			wantErr: errors.New("timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewScanRepository(mock)
			got, err := repo.GetByID(context.Background(), scanID)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, domain.ErrScanNotFound) {
					assert.ErrorIs(t, err, domain.ErrScanNotFound)
				}
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestScanRepository_ListSince(t *testing.T) {
	now := time.Now()
	since := now.Add(-7 * 24 * time.Hour)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	first := sampleScan(uuid.New(), now.Add(-48*time.Hour))
	second := sampleScan(uuid.New(), now.Add(-24*time.Hour))
	second.Emotion = domain.EmotionHappy
	second.StressLevel = domain.StressLow

	rows := pgxmock.NewRows(scanTestColumns)
	addScanRow(rows, first)
	addScanRow(rows, second)

	mock.ExpectQuery(`SELECT (.+) FROM scans WHERE user_id = \$1 AND created_at >= \$2 ORDER BY created_at ASC`).
		WithArgs("user-123", since).
		WillReturnRows(rows)

	repo := NewScanRepository(mock)
	scans, err := repo.ListSince(context.Background(), "user-123", since)

	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, first.ID, scans[0].ID)
	assert.Equal(t, domain.EmotionHappy, scans[1].Emotion)
	assert.Equal(t, first.Probabilities, scans[0].Probabilities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepository_ListRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	newest := sampleScan(uuid.New(), time.Now())
	rows := addScanRow(pgxmock.NewRows(scanTestColumns), newest)

	mock.ExpectQuery(`SELECT (.+) FROM scans WHERE user_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("user-123", 20).
		WillReturnRows(rows)

	repo := NewScanRepository(mock)
	scans, err := repo.ListRecent(context.Background(), "user-123", 20)

	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, newest.ID, scans[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepository_ListSimilar(t *testing.T) {
	scanID := uuid.New()
	now := time.Now()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	reference := addScanRow(pgxmock.NewRows(scanTestColumns), sampleScan(scanID, now))
	mock.ExpectQuery(`SELECT (.+) FROM scans WHERE id = \$1`).
		WithArgs(scanID).
		WillReturnRows(reference)

	match := sampleScan(uuid.New(), now.Add(-time.Hour))
	matchColumns := append(append([]string{}, scanTestColumns...), "similarity")
	matchRows := pgxmock.NewRows(matchColumns)
	var probabilities *pgvector.Vector
	vec := pgvector.NewVector(match.Probabilities)
	probabilities = &vec
	matchRows.AddRow(
		match.ID, match.UserID, match.Emotion, match.StressLevel,
		match.EyeStrain, match.BrowTension, match.FacialFatigue,
		match.Confidence, match.DetectionMethod, match.ReliefUrgency,
		probabilities, match.Predictions, match.CreatedAt,
		0.97,
	)

	mock.ExpectQuery(`ORDER BY probabilities <=> \$1 LIMIT \$3`).
		WithArgs(pgxmock.AnyArg(), scanID, 5).
		WillReturnRows(matchRows)

	repo := NewScanRepository(mock)
	matches, err := repo.ListSimilar(context.Background(), scanID, 5)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, match.ID, matches[0].Scan.ID)
	assert.InDelta(t, 0.97, matches[0].Similarity, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepository_ListSimilar_NotFound(t *testing.T) {
	scanID := uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT (.+) FROM scans WHERE id = \$1`).
		WithArgs(scanID).
		WillReturnError(pgx.ErrNoRows)

	repo := NewScanRepository(mock)
	matches, err := repo.ListSimilar(context.Background(), scanID, 5)

	assert.Nil(t, matches)
	assert.ErrorIs(t, err, domain.ErrScanNotFound)
}

func TestScanRepository_CountSince(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	since := time.Now().Add(-7 * 24 * time.Hour)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scans`).
		WithArgs("user-123", since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	repo := NewScanRepository(mock)
	count, err := repo.CountSince(context.Background(), "user-123", since)

	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
