package metrics

import (
	"context"
	"log/slog"
	"time"
)

const (
	// rollupWindow is how far back each rollup pass recomputes. Two days
	// covers late-arriving scans around the day boundary.
	rollupWindow = 48 * time.Hour

	// retention is how long daily buckets are kept before cleanup.
	retention = 90 * 24 * time.Hour
)

// Aggregator periodically rolls scan rows up into daily metric buckets.
type Aggregator struct {
	repo     *Repository
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
}

// NewAggregator creates a new metrics aggregator worker
func NewAggregator(repo *Repository, logger *slog.Logger, interval time.Duration) *Aggregator {
	if interval == 0 {
		interval = 1 * time.Hour
	}

	return &Aggregator{
		repo:     repo,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the aggregation worker
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("metrics aggregator started", "interval", a.interval)

	// Run once at startup so a fresh deploy has buckets immediately.
	a.aggregate(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("metrics aggregator stopped")
			return
		case <-a.done:
			a.logger.Info("metrics aggregator stopped")
			return
		case <-ticker.C:
			a.aggregate(ctx)
		}
	}
}

// Stop gracefully shuts down the aggregator
func (a *Aggregator) Stop() {
	close(a.done)
}

// aggregate performs one rollup and retention pass
func (a *Aggregator) aggregate(ctx context.Context) {
	a.logger.Debug("running metrics aggregation")

	since := time.Now().Add(-rollupWindow)
	upserted, err := a.repo.Rollup(ctx, since)
	if err != nil {
		a.logger.Error("failed to roll up scan metrics", "error", err)
	} else if upserted > 0 {
		a.logger.Info("rolled up scan metrics", "buckets", upserted)
	}

	deleted, err := a.repo.DeleteOldMetrics(ctx, retention)
	if err != nil {
		a.logger.Error("failed to delete old metrics", "error", err)
	} else if deleted > 0 {
		a.logger.Info("deleted old metrics", "count", deleted)
	}
}
