// SPDX-License-Identifier: GPL-3.0-only

package quota

import (
	"context"
	"strings"
	"testing"

	"docgate-server/cache"
	"docgate-server/models"
)

func int64Ptr(v int64) *int64 { return &v }

func testEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	return NewEvaluator(NewCounterStore(cache.NewMemoryCache(), testDB(t)))
}

func TestCheckQuotaAllowsUnderLimit(t *testing.T) {
	evaluator := testEvaluator(t)
	ctx := context.Background()
	user := &models.User{ID: 1}
	plan := &models.Plan{DailyRequestLimit: int64Ptr(5), MonthlyRequestLimit: int64Ptr(100)}

	decision, err := evaluator.CheckQuota(ctx, user, models.LiveKey, plan)
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("Expected allowed, got denied: %s", decision.Reason)
	}
	if decision.Quota.RemainingDaily == nil || *decision.Quota.RemainingDaily != 5 {
		t.Errorf("Expected 5 remaining daily, got %v", decision.Quota.RemainingDaily)
	}
}

func TestCheckQuotaDeniesAtDailyLimit(t *testing.T) {
	evaluator := testEvaluator(t)
	ctx := context.Background()
	user := &models.User{ID: 1}
	plan := &models.Plan{DailyRequestLimit: int64Ptr(5), MonthlyRequestLimit: int64Ptr(100)}

	for i := 0; i < 5; i++ {
		decision, err := evaluator.CheckQuota(ctx, user, models.LiveKey, plan)
		if err != nil {
			t.Fatalf("CheckQuota failed: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("Request %d should be allowed: %s", i+1, decision.Reason)
		}
		evaluator.IncrementUsage(ctx, user)
	}

	decision, err := evaluator.CheckQuota(ctx, user, models.LiveKey, plan)
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if decision.Allowed {
		t.Error("Sixth request should be denied")
	}
	if !strings.HasPrefix(decision.Reason, "Daily quota exceeded") {
		t.Errorf("Unexpected denial reason: %s", decision.Reason)
	}
	if decision.Quota.RemainingDaily == nil || *decision.Quota.RemainingDaily != 0 {
		t.Errorf("Expected 0 remaining daily, got %v", decision.Quota.RemainingDaily)
	}
}

func TestCheckQuotaDeniesAtMonthlyLimit(t *testing.T) {
	evaluator := testEvaluator(t)
	ctx := context.Background()
	user := &models.User{ID: 1}
	plan := &models.Plan{MonthlyRequestLimit: int64Ptr(3)}

	for i := 0; i < 3; i++ {
		evaluator.IncrementUsage(ctx, user)
	}

	decision, err := evaluator.CheckQuota(ctx, user, models.LiveKey, plan)
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if decision.Allowed {
		t.Error("Request over the monthly limit should be denied")
	}
	if !strings.HasPrefix(decision.Reason, "Monthly quota exceeded") {
		t.Errorf("Unexpected denial reason: %s", decision.Reason)
	}
}

func TestCheckQuotaDailyEvaluatedBeforeMonthly(t *testing.T) {
	evaluator := testEvaluator(t)
	ctx := context.Background()
	user := &models.User{ID: 1}
	plan := &models.Plan{DailyRequestLimit: int64Ptr(1), MonthlyRequestLimit: int64Ptr(1)}

	evaluator.IncrementUsage(ctx, user)

	decision, err := evaluator.CheckQuota(ctx, user, models.LiveKey, plan)
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if decision.Allowed {
		t.Error("Request should be denied")
	}
	if !strings.HasPrefix(decision.Reason, "Daily quota exceeded") {
		t.Errorf("Daily limit should set the reason when both are breached, got: %s", decision.Reason)
	}
}

func TestCheckQuotaUnlimitedPlan(t *testing.T) {
	evaluator := testEvaluator(t)
	ctx := context.Background()
	user := &models.User{ID: 1}
	plan := &models.Plan{}

	for i := 0; i < 10; i++ {
		evaluator.IncrementUsage(ctx, user)
	}

	decision, err := evaluator.CheckQuota(ctx, user, models.LiveKey, plan)
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("Unlimited plan should never be denied: %s", decision.Reason)
	}
	if decision.Quota.RemainingDaily != nil {
		t.Error("Remaining daily should be nil for an unlimited plan")
	}
	if decision.Quota.DailyPercentage != nil {
		t.Error("Daily percentage should be nil for an unlimited plan")
	}
	if decision.Quota.DailyUsed != 10 {
		t.Errorf("Usage should still be tracked, got %d", decision.Quota.DailyUsed)
	}
}

func TestCheckQuotaTestKeyBypassesQuota(t *testing.T) {
	evaluator := testEvaluator(t)
	ctx := context.Background()
	user := &models.User{ID: 1}
	plan := &models.Plan{DailyRequestLimit: int64Ptr(0)}

	decision, err := evaluator.CheckQuota(ctx, user, models.TestKey, plan)
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("Test keys must bypass quota: %s", decision.Reason)
	}
}

func TestCheckQuotaEnforcementDisabled(t *testing.T) {
	t.Setenv("ENFORCE_DAILY_QUOTA", "false")
	t.Setenv("ENFORCE_MONTHLY_QUOTA", "false")

	evaluator := testEvaluator(t)
	ctx := context.Background()
	user := &models.User{ID: 1}
	plan := &models.Plan{DailyRequestLimit: int64Ptr(1), MonthlyRequestLimit: int64Ptr(1)}

	for i := 0; i < 3; i++ {
		evaluator.IncrementUsage(ctx, user)
	}

	decision, err := evaluator.CheckQuota(ctx, user, models.LiveKey, plan)
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("Disabled enforcement should always allow: %s", decision.Reason)
	}
}

func TestGetQuotaStatusPercentages(t *testing.T) {
	evaluator := testEvaluator(t)
	ctx := context.Background()
	user := &models.User{ID: 1}
	plan := &models.Plan{DailyRequestLimit: int64Ptr(4), MonthlyRequestLimit: int64Ptr(100)}

	evaluator.IncrementUsage(ctx, user)

	info, err := evaluator.GetQuotaStatus(ctx, user, plan)
	if err != nil {
		t.Fatalf("GetQuotaStatus failed: %v", err)
	}
	if info.DailyUsed != 1 {
		t.Errorf("Expected 1 daily used, got %d", info.DailyUsed)
	}
	if info.DailyPercentage == nil || *info.DailyPercentage != 25 {
		t.Errorf("Expected 25%% daily usage, got %v", info.DailyPercentage)
	}
	if info.RemainingDaily == nil || *info.RemainingDaily != 3 {
		t.Errorf("Expected 3 remaining daily, got %v", info.RemainingDaily)
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	if r := remaining(int64Ptr(3), 10); r == nil || *r != 0 {
		t.Errorf("Remaining should clamp to 0, got %v", r)
	}
}

func TestPercentageClamped(t *testing.T) {
	if p := percentage(int64Ptr(3), 10); p == nil || *p != 100 {
		t.Errorf("Percentage should clamp to 100, got %v", p)
	}
	if p := percentage(int64Ptr(0), 10); p != nil {
		t.Errorf("Percentage of a zero limit should be nil, got %v", p)
	}
}
