// SPDX-License-Identifier: GPL-3.0-only

package quota

import (
	"context"
	"fmt"
	"time"

	"docgate-server/commons"
	"docgate-server/models"
)

// QuotaInfo reports limits and usage for both accounting windows. A nil
// limit means unlimited; remaining and percentage are nil in that case.
type QuotaInfo struct {
	DailyLimit        *int64   `json:"daily_limit"`
	MonthlyLimit      *int64   `json:"monthly_limit"`
	DailyUsed         int64    `json:"daily_used"`
	MonthlyUsed       int64    `json:"monthly_used"`
	RemainingDaily    *int64   `json:"remaining_daily"`
	RemainingMonthly  *int64   `json:"remaining_monthly"`
	DailyPercentage   *float64 `json:"daily_percentage"`
	MonthlyPercentage *float64 `json:"monthly_percentage"`
}

type Decision struct {
	Allowed bool      `json:"allowed"`
	Reason  string    `json:"reason,omitempty"`
	Quota   QuotaInfo `json:"quota"`
}

type Evaluator struct {
	counters *CounterStore
}

func NewEvaluator(counters *CounterStore) *Evaluator {
	return &Evaluator{counters: counters}
}

func remaining(limit *int64, used int64) *int64 {
	if limit == nil {
		return nil
	}
	r := *limit - used
	if r < 0 {
		r = 0
	}
	return &r
}

func percentage(limit *int64, used int64) *float64 {
	if limit == nil || *limit == 0 {
		return nil
	}
	p := (float64(used) / float64(*limit)) * 100
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return &p
}

// CheckQuota decides allow/deny for a billable request. Test/sandbox
// credentials bypass quota entirely. The daily limit is evaluated before the
// monthly one; the first breached limit sets the denial reason, but both
// remaining figures are always reported.
func (e *Evaluator) CheckQuota(ctx context.Context, user *models.User, keyType models.APIKeyType, plan *models.Plan) (Decision, error) {
	if keyType == models.TestKey {
		return Decision{Allowed: true, Quota: QuotaInfo{}}, nil
	}

	now := time.Now()
	daily := DailyPeriod(now)
	monthly := MonthlyPeriod(now)

	dailyUsed, err := e.counters.Read(ctx, user.ID, daily)
	if err != nil {
		return Decision{}, err
	}
	monthlyUsed, err := e.counters.Read(ctx, user.ID, monthly)
	if err != nil {
		return Decision{}, err
	}

	info := QuotaInfo{
		DailyLimit:        plan.DailyRequestLimit,
		MonthlyLimit:      plan.MonthlyRequestLimit,
		DailyUsed:         dailyUsed,
		MonthlyUsed:       monthlyUsed,
		RemainingDaily:    remaining(plan.DailyRequestLimit, dailyUsed),
		RemainingMonthly:  remaining(plan.MonthlyRequestLimit, monthlyUsed),
		DailyPercentage:   percentage(plan.DailyRequestLimit, dailyUsed),
		MonthlyPercentage: percentage(plan.MonthlyRequestLimit, monthlyUsed),
	}

	enforceDaily := commons.GetEnv("ENFORCE_DAILY_QUOTA", "true") == "true"
	enforceMonthly := commons.GetEnv("ENFORCE_MONTHLY_QUOTA", "true") == "true"

	if enforceDaily && plan.DailyRequestLimit != nil && dailyUsed >= *plan.DailyRequestLimit {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("Daily quota exceeded: %d of %d requests used today", dailyUsed, *plan.DailyRequestLimit),
			Quota:   info,
		}, nil
	}

	if enforceMonthly && plan.MonthlyRequestLimit != nil && monthlyUsed >= *plan.MonthlyRequestLimit {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("Monthly quota exceeded: %d of %d requests used this month", monthlyUsed, *plan.MonthlyRequestLimit),
			Quota:   info,
		}, nil
	}

	return Decision{Allowed: true, Quota: info}, nil
}

// IncrementUsage bumps the daily and monthly counters. Call exactly once,
// after the billable operation succeeded; a failed conversion must not
// consume quota. Committed increments are not rolled back on client abort.
func (e *Evaluator) IncrementUsage(ctx context.Context, user *models.User) {
	now := time.Now()
	if _, err := e.counters.Increment(ctx, user.ID, DailyPeriod(now)); err != nil {
		commons.Logger.Errorf("Failed to increment daily usage counter for user %d: %v", user.ID, err)
	}
	if _, err := e.counters.Increment(ctx, user.ID, MonthlyPeriod(now)); err != nil {
		commons.Logger.Errorf("Failed to increment monthly usage counter for user %d: %v", user.ID, err)
	}
}

// GetQuotaStatus reports current limits, usage, remaining and percentage
// figures for display.
func (e *Evaluator) GetQuotaStatus(ctx context.Context, user *models.User, plan *models.Plan) (QuotaInfo, error) {
	now := time.Now()

	dailyUsed, err := e.counters.Read(ctx, user.ID, DailyPeriod(now))
	if err != nil {
		return QuotaInfo{}, err
	}
	monthlyUsed, err := e.counters.Read(ctx, user.ID, MonthlyPeriod(now))
	if err != nil {
		return QuotaInfo{}, err
	}

	return QuotaInfo{
		DailyLimit:        plan.DailyRequestLimit,
		MonthlyLimit:      plan.MonthlyRequestLimit,
		DailyUsed:         dailyUsed,
		MonthlyUsed:       monthlyUsed,
		RemainingDaily:    remaining(plan.DailyRequestLimit, dailyUsed),
		RemainingMonthly:  remaining(plan.MonthlyRequestLimit, monthlyUsed),
		DailyPercentage:   percentage(plan.DailyRequestLimit, dailyUsed),
		MonthlyPercentage: percentage(plan.MonthlyRequestLimit, monthlyUsed),
	}, nil
}
