// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"

	"docgate-server/cache"
	"docgate-server/db"
	"docgate-server/middlewares"
	"docgate-server/quota"

	"github.com/labstack/echo/v4"
)

// GetQuotaStatusHandler godoc
// @Summary      Get quota status
// @Description  Reports current usage against the plan's daily and monthly limits. Null limits mean unlimited.
// @Tags         quota
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} QuotaStatusResponse "Quota status retrieved successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/quota [get]
func GetQuotaStatusHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	evaluator := quota.NewEvaluator(quota.NewCounterStore(cache.Store, db.Conn))
	info, err := evaluator.GetQuotaStatus(c.Request().Context(), user, &user.Plan)
	if err != nil {
		logger.Errorf("Failed to read quota status: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, QuotaStatusResponse{
		Plan:    string(user.Plan.Name),
		Quota:   info,
		Message: "Quota status retrieved successfully",
	})
}
