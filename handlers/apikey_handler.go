// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"
	"time"

	"docgate-server/apikeys"
	"docgate-server/crypto"
	"docgate-server/db"
	"docgate-server/middlewares"
	"docgate-server/models"

	"github.com/labstack/echo/v4"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func apiKeyDetails(key *models.APIKey) APIKeyDetails {
	return APIKeyDetails{
		KeyID:      key.KeyID,
		MaskedKey:  key.MaskedKey,
		Name:       key.Name,
		Type:       string(key.Type),
		IsActive:   key.IsActive,
		Revoked:    key.Revoked,
		CreatedAt:  formatTime(key.CreatedAt),
		LastUsedAt: formatTimePtr(key.LastUsedAt),
		ExpiresAt:  formatTimePtr(key.ExpiresAt),
	}
}

// CreateAPIKeyHandler godoc
// @Summary      Create an API key
// @Description  Issues a new API key for the authenticated user. The raw key is returned exactly once.
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        createAPIKeyRequest  body  CreateAPIKeyRequest  true  "API key creation payload"
// @Success      201 {object} CreateAPIKeyResponse "API key created successfully"
// @Failure      400 {object} echo.HTTPError  "Bad request"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      403 {object} echo.HTTPError  "Sandbox keys disabled"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/api-keys [post]
func CreateAPIKeyHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	var req CreateAPIKeyRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid API key creation payload:", err)
		return echo.ErrBadRequest
	}

	if req.Name == "" {
		logger.Error("API key name is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "name field is required",
		}
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			logger.Error("Invalid expires_at value:", err)
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "expires_at must be a valid RFC 3339 timestamp",
			}
		}
		if parsed.Before(time.Now()) {
			logger.Error("expires_at is in the past.")
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "expires_at must be in the future",
			}
		}
		expiresAt = &parsed
	}

	service := apikeys.NewService(db.Conn, crypto.NewCrypto())
	result, err := service.Create(user, &user.Plan, apikeys.CreateParams{
		Name:           req.Name,
		Type:           models.APIKeyType(req.Type),
		ExpiresAt:      expiresAt,
		AllowedDomains: req.AllowedDomains,
	})
	if err != nil {
		if errors.Is(err, apikeys.ErrSandboxDisabled) {
			logger.Error("Sandbox key creation rejected.")
			return &echo.HTTPError{
				Code:    http.StatusForbidden,
				Message: "Sandbox keys are not enabled for this account",
			}
		}
		if errors.Is(err, apikeys.ErrInvalidKeyType) {
			logger.Error("Invalid API key type requested.")
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "type must be either 'live' or 'test'",
			}
		}
		logger.Errorf("Failed to create API key: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("API key created successfully")
	return c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		APIKey:    result.RawKey,
		KeyID:     result.Key.KeyID,
		MaskedKey: result.MaskedKey,
		Name:      result.Key.Name,
		Type:      string(result.Key.Type),
		CreatedAt: formatTime(result.Key.CreatedAt),
		ExpiresAt: formatTimePtr(result.Key.ExpiresAt),
		Warning:   result.Warning,
		Message:   "API key created successfully",
	})
}

// ListAPIKeysHandler godoc
// @Summary      List API keys
// @Description  Lists the authenticated user's API keys. Raw keys and hashes are never included.
// @Tags         api-keys
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIKeyListResponse "API keys retrieved successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/api-keys [get]
func ListAPIKeysHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	var keys []models.APIKey
	if err := db.Conn.Where("user_id = ?", user.ID).
		Order("created_at DESC").Find(&keys).Error; err != nil {
		logger.Errorf("Failed to list API keys: %v", err)
		return echo.ErrInternalServerError
	}

	data := make([]APIKeyDetails, 0, len(keys))
	for i := range keys {
		data = append(data, apiKeyDetails(&keys[i]))
	}

	return c.JSON(http.StatusOK, APIKeyListResponse{
		Data:    data,
		Message: "API keys retrieved successfully",
	})
}

// RevokeAPIKeyHandler godoc
// @Summary      Revoke an API key
// @Description  Revokes an API key permanently. Revoking an already revoked key succeeds without changes.
// @Tags         api-keys
// @Produce      json
// @Security     BearerAuth
// @Param        key_id  path  string  true  "API key identifier"
// @Success      200 {object} GenericResponse "API key revoked successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      404 {object} echo.HTTPError  "API key not found"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/api-keys/{key_id} [delete]
func RevokeAPIKeyHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	keyID := c.Param("key_id")
	service := apikeys.NewService(db.Conn, crypto.NewCrypto())
	if err := service.Revoke(keyID, user.ID); err != nil {
		if errors.Is(err, apikeys.ErrNotFound) {
			logger.Error("API key not found for revocation.")
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "API key not found",
			}
		}
		logger.Errorf("Failed to revoke API key: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("API key revoked successfully")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "API key revoked successfully",
	})
}

// RegenerateAPIKeyHandler godoc
// @Summary      Regenerate an API key
// @Description  Revokes the existing key and issues a replacement with the same name, type, expiry and domain allowlist.
// @Tags         api-keys
// @Produce      json
// @Security     BearerAuth
// @Param        key_id  path  string  true  "API key identifier"
// @Success      201 {object} CreateAPIKeyResponse "API key regenerated successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      404 {object} echo.HTTPError  "API key not found"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/api-keys/{key_id}/regenerate [post]
func RegenerateAPIKeyHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	keyID := c.Param("key_id")
	service := apikeys.NewService(db.Conn, crypto.NewCrypto())
	result, err := service.Regenerate(keyID, user, &user.Plan)
	if err != nil {
		if errors.Is(err, apikeys.ErrNotFound) {
			logger.Error("API key not found for regeneration.")
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "API key not found",
			}
		}
		logger.Errorf("Failed to regenerate API key: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("API key regenerated successfully")
	return c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		APIKey:    result.RawKey,
		KeyID:     result.Key.KeyID,
		MaskedKey: result.MaskedKey,
		Name:      result.Key.Name,
		Type:      string(result.Key.Type),
		CreatedAt: formatTime(result.Key.CreatedAt),
		ExpiresAt: formatTimePtr(result.Key.ExpiresAt),
		Warning:   result.Warning,
		Message:   "API key regenerated successfully",
	})
}
