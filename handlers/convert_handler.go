// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"io"
	"net/http"

	"docgate-server/cache"
	"docgate-server/converter"
	"docgate-server/db"
	"docgate-server/middlewares"
	"docgate-server/models"
	"docgate-server/quota"
	"docgate-server/webhooks"

	"github.com/labstack/echo/v4"
)

const quotaWarningThreshold = 80.0

// ConvertDocumentHandler godoc
// @Summary      Convert a document
// @Description  Converts an uploaded document to the requested format. This is the billable operation: it is quota-checked before conversion and counted after a successful one.
// @Tags         convert
// @Accept       multipart/form-data
// @Produce      json
// @Security     ApiKeyAuth
// @Param        document       formData  file    true  "Document to convert"
// @Param        target_format  formData  string  true  "Target format, e.g. pdf"
// @Success      200 {object} ConvertResponse "Document converted successfully"
// @Failure      400 {object} echo.HTTPError  "Bad request"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      413 {object} echo.HTTPError  "File exceeds plan size limit"
// @Failure      422 {object} echo.HTTPError  "Document exceeds plan page limit"
// @Failure      429 {object} echo.HTTPError  "Quota exceeded"
// @Failure      502 {object} echo.HTTPError  "Conversion backend failure"
// @Router       /v1/convert [post]
func ConvertDocumentHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}
	apiKey := middlewares.GetAuthenticatedAPIKey(c)

	targetFormat := c.FormValue("target_format")
	if targetFormat == "" {
		logger.Error("target_format is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "target_format field is required",
		}
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		logger.Error("Missing document upload:", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "document file is required",
		}
	}

	plan := &user.Plan
	maxBytes := plan.MaxFileSizeMB * 1024 * 1024
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		logger.Errorf("Upload of %d bytes exceeds plan limit of %d MB", fileHeader.Size, plan.MaxFileSizeMB)
		return &echo.HTTPError{
			Code:    http.StatusRequestEntityTooLarge,
			Message: "File exceeds the maximum size allowed by your plan",
		}
	}

	keyType := models.LiveKey
	if apiKey != nil {
		keyType = apiKey.Type
	}

	evaluator := quota.NewEvaluator(quota.NewCounterStore(cache.Store, db.Conn))
	decision, err := evaluator.CheckQuota(c.Request().Context(), user, keyType, plan)
	if err != nil {
		logger.Errorf("Quota check failed: %v", err)
		return echo.ErrInternalServerError
	}
	if !decision.Allowed {
		logger.Info("Conversion denied by quota.")
		go webhooks.NewPublisher().Publish(user, plan, webhooks.QuotaExceeded, map[string]any{
			"reason": decision.Reason,
		})
		return &echo.HTTPError{
			Code:    http.StatusTooManyRequests,
			Message: decision.Reason,
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Errorf("Failed to open uploaded document: %v", err)
		return echo.ErrInternalServerError
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		logger.Errorf("Failed to read uploaded document: %v", err)
		return echo.ErrInternalServerError
	}

	client := converter.NewClient()
	result, err := client.Convert(c.Request().Context(), document, fileHeader.Filename, targetFormat)
	if err != nil {
		logger.Errorf("Conversion backend error: %v", err)
		return &echo.HTTPError{
			Code:    http.StatusBadGateway,
			Message: "Document conversion failed, please try again later",
		}
	}

	if plan.MaxPagesPerPDF != nil && int64(result.Pages) > *plan.MaxPagesPerPDF {
		logger.Errorf("Document has %d pages, plan allows %d", result.Pages, *plan.MaxPagesPerPDF)
		return &echo.HTTPError{
			Code:    http.StatusUnprocessableEntity,
			Message: "Document exceeds the maximum page count allowed by your plan",
		}
	}

	record := models.UsageRecord{
		UserID:    user.ID,
		Pages:     result.Pages,
		SizeBytes: result.SizeBytes,
		Status:    "COMPLETED",
		Billable:  keyType != models.TestKey,
	}
	if apiKey != nil {
		record.APIKeyID = &apiKey.ID
	}
	if err := db.Conn.Create(&record).Error; err != nil {
		logger.Errorf("Failed to write usage record: %v", err)
	}

	if keyType != models.TestKey {
		evaluator.IncrementUsage(c.Request().Context(), user)
	}

	info, err := evaluator.GetQuotaStatus(c.Request().Context(), user, plan)
	if err != nil {
		logger.Errorf("Failed to read quota status after conversion: %v", err)
	}

	publisher := webhooks.NewPublisher()
	go publisher.Publish(user, plan, webhooks.ConversionCompleted, map[string]any{
		"filename":      fileHeader.Filename,
		"target_format": targetFormat,
		"pages":         result.Pages,
		"size_bytes":    result.SizeBytes,
	})
	if info.DailyPercentage != nil && *info.DailyPercentage >= quotaWarningThreshold {
		go publisher.Publish(user, plan, webhooks.QuotaWarning, map[string]any{
			"daily_percentage": *info.DailyPercentage,
		})
	}

	return c.JSON(http.StatusOK, ConvertResponse{
		Pages:            result.Pages,
		SizeBytes:        result.SizeBytes,
		RemainingDaily:   info.RemainingDaily,
		RemainingMonthly: info.RemainingMonthly,
		Message:          "Document converted successfully",
	})
}
