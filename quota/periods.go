// SPDX-License-Identifier: GPL-3.0-only

package quota

import (
	"fmt"
	"time"
)

// Period is a calendar accounting bucket. All buckets are computed in UTC so
// every replica agrees on the key and expiry.
type Period struct {
	Key   string
	Start time.Time
	End   time.Time
}

func DailyPeriod(now time.Time) Period {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Period{
		Key:   start.Format("2006-01-02"),
		Start: start,
		End:   start.AddDate(0, 0, 1),
	}
}

func MonthlyPeriod(now time.Time) Period {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Key:   start.Format("2006-01"),
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}
}

// TTL covers the remainder of the period so counters expire naturally at the
// bucket boundary.
func (p Period) TTL(now time.Time) time.Duration {
	ttl := p.End.Sub(now.UTC())
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func counterKey(userID uint, periodKey string) string {
	return fmt.Sprintf("usage:%d:%s", userID, periodKey)
}
