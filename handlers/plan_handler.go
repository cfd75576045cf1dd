// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"

	"docgate-server/db"
	"docgate-server/models"

	"github.com/labstack/echo/v4"
)

// GetPlansHandler godoc
// @Summary      List available plans
// @Description  Lists the active subscription plans and their limits.
// @Tags         plans
// @Produce      json
// @Success      200 {object} GetPlansResponse "Plans retrieved successfully"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/plans [get]
func GetPlansHandler(c echo.Context) error {
	logger := c.Logger()

	var plans []models.Plan
	if err := db.Conn.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error; err != nil {
		logger.Errorf("Failed to list plans: %v", err)
		return echo.ErrInternalServerError
	}

	details := make([]PlanDetails, 0, len(plans))
	for _, plan := range plans {
		details = append(details, PlanDetails{
			ID:                  plan.ID,
			Name:                string(plan.Name),
			Price:               plan.Price,
			Currency:            plan.Currency,
			DailyRequestLimit:   plan.DailyRequestLimit,
			MonthlyRequestLimit: plan.MonthlyRequestLimit,
			MaxFileSizeMB:       plan.MaxFileSizeMB,
			MaxPagesPerPDF:      plan.MaxPagesPerPDF,
			MaxConcurrentJobs:   plan.MaxConcurrentJobs,
			WebhooksEnabled:     plan.WebhooksEnabled,
			SandboxKeysEnabled:  plan.SandboxKeysEnabled,
		})
	}

	return c.JSON(http.StatusOK, GetPlansResponse{
		Plans:   details,
		Message: "Plans retrieved successfully",
	})
}
