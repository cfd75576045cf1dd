// SPDX-License-Identifier: GPL-3.0-only

package quota

import (
	"context"
	"time"

	"docgate-server/cache"
	"docgate-server/commons"
	"docgate-server/models"

	"gorm.io/gorm"
)

// CounterStore tracks per-user request counts per period bucket. The cache
// holds the fast path; the UsageRecord ledger is the source of truth when a
// cached entry is absent. Cache failures are logged and degrade to the
// ledger, never surfaced to the request path.
type CounterStore struct {
	cache cache.Cache
	conn  *gorm.DB
}

func NewCounterStore(c cache.Cache, conn *gorm.DB) *CounterStore {
	return &CounterStore{cache: c, conn: conn}
}

// Increment atomically bumps the counter for the period, setting an expiry
// covering the remainder of the period on first write. Must only be called
// after the billable operation completed successfully.
func (s *CounterStore) Increment(ctx context.Context, userID uint, period Period) (int64, error) {
	count, err := s.cache.Increment(ctx, counterKey(userID, period.Key), period.TTL(time.Now()))
	if err != nil {
		commons.Logger.Warnf("Counter increment degraded to ledger for user %d period %s: %v", userID, period.Key, err)
		return s.ledgerCount(userID, period)
	}
	return count, nil
}

// Read returns the cached count, falling back to the ledger on a miss. A
// positive ledger count is backfilled into the cache with a period TTL;
// zero counts are not cached.
func (s *CounterStore) Read(ctx context.Context, userID uint, period Period) (int64, error) {
	key := counterKey(userID, period.Key)

	count, err := s.cache.Get(ctx, key)
	if err == nil {
		return count, nil
	}
	if err != cache.ErrCacheMiss {
		commons.Logger.Warnf("Counter read degraded to ledger for user %d period %s: %v", userID, period.Key, err)
	}

	count, err = s.ledgerCount(userID, period)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		if err := s.cache.SetWithTTL(ctx, key, count, period.TTL(time.Now())); err != nil {
			commons.Logger.Warnf("Counter backfill failed for user %d period %s: %v", userID, period.Key, err)
		}
	}
	return count, nil
}

func (s *CounterStore) ledgerCount(userID uint, period Period) (int64, error) {
	var count int64
	err := s.conn.Model(&models.UsageRecord{}).
		Where("user_id = ? AND billable = ? AND created_at >= ? AND created_at < ?", userID, true, period.Start, period.End).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
