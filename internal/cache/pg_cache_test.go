package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "model_metrics:cnn"

func TestPGCache_Set(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache := NewPGCacheWithDB(mock)
	ctx := context.Background()

	key := testKey
	value := []byte(`{"accuracy":89}`)
	ttl := 5 * time.Minute

	mock.ExpectExec("INSERT INTO cache_entries").
		WithArgs(key, value, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = cache.Set(ctx, key, value, ttl)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGCache_Get(t *testing.T) {
	t.Run("successful get", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		cache := NewPGCacheWithDB(mock)
		ctx := context.Background()

		key := testKey
		value := []byte(`{"accuracy":89}`)
		expiresAt := time.Now().Add(5 * time.Minute)

		rows := pgxmock.NewRows([]string{"value", "expires_at"}).
			AddRow(value, expiresAt)

		mock.ExpectQuery("SELECT value, expires_at FROM cache_entries").
			WithArgs(key).
			WillReturnRows(rows)

		result, err := cache.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, value, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache miss", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		cache := NewPGCacheWithDB(mock)
		ctx := context.Background()

		key := "missing:key"

		mock.ExpectQuery("SELECT value, expires_at FROM cache_entries").
			WithArgs(key).
			WillReturnError(pgx.ErrNoRows)

		result, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss)
		assert.Nil(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired entry", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		cache := NewPGCacheWithDB(mock)
		ctx := context.Background()

		key := "expired:key"
		value := []byte(`{"accuracy":89}`)
		expiresAt := time.Now().Add(-5 * time.Minute) // Expired

		rows := pgxmock.NewRows([]string{"value", "expires_at"}).
			AddRow(value, expiresAt)

		mock.ExpectQuery("SELECT value, expires_at FROM cache_entries").
			WithArgs(key).
			WillReturnRows(rows)

		// Expect delete of expired entry
		mock.ExpectExec("DELETE FROM cache_entries WHERE key").
			WithArgs(key).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		result, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheExpired)
		assert.Nil(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPGCache_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache := NewPGCacheWithDB(mock)
	ctx := context.Background()

	key := testKey

	mock.ExpectExec("DELETE FROM cache_entries WHERE key").
		WithArgs(key).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err = cache.Delete(ctx, key)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGCache_CleanupExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache := NewPGCacheWithDB(mock)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM cache_entries WHERE expires_at").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := cache.CleanupExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGCache_Exists(t *testing.T) {
	t.Run("key exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		cache := NewPGCacheWithDB(mock)
		ctx := context.Background()

		key := testKey

		rows := pgxmock.NewRows([]string{"exists"}).AddRow(true)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(key).
			WillReturnRows(rows)

		exists, err := cache.Exists(ctx, key)
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("key does not exist", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		cache := NewPGCacheWithDB(mock)
		ctx := context.Background()

		key := "missing:key"

		rows := pgxmock.NewRows([]string{"exists"}).AddRow(false)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(key).
			WillReturnRows(rows)

		exists, err := cache.Exists(ctx, key)
		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
