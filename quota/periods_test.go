// SPDX-License-Identifier: GPL-3.0-only

package quota

import (
	"testing"
	"time"
)

func TestDailyPeriod(t *testing.T) {
	now := time.Date(2026, 3, 15, 13, 45, 0, 0, time.UTC)
	p := DailyPeriod(now)

	if p.Key != "2026-03-15" {
		t.Errorf("Expected key 2026-03-15, got %s", p.Key)
	}
	if !p.Start.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected period start: %v", p.Start)
	}
	if !p.End.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected period end: %v", p.End)
	}
}

func TestDailyPeriodUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 3, 16, 2, 0, 0, 0, loc)

	p := DailyPeriod(local)
	if p.Key != "2026-03-15" {
		t.Errorf("Period key should follow UTC, got %s", p.Key)
	}
}

func TestMonthlyPeriod(t *testing.T) {
	now := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	p := MonthlyPeriod(now)

	if p.Key != "2026-01" {
		t.Errorf("Expected key 2026-01, got %s", p.Key)
	}
	if !p.End.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected period end: %v", p.End)
	}
}

func TestPeriodTTL(t *testing.T) {
	now := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	p := DailyPeriod(now)

	if ttl := p.TTL(now); ttl != time.Hour {
		t.Errorf("Expected TTL of 1h, got %v", ttl)
	}

	// At or past the boundary the TTL is clamped so a counter never gets
	// written without an expiry.
	if ttl := p.TTL(p.End.Add(time.Minute)); ttl != time.Second {
		t.Errorf("Expected clamped TTL of 1s, got %v", ttl)
	}
}

func TestCounterKey(t *testing.T) {
	p := DailyPeriod(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	if key := counterKey(42, p.Key); key != "usage:42:2026-03-15" {
		t.Errorf("Unexpected counter key: %s", key)
	}
}
