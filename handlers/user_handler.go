// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"

	"docgate-server/crypto"
	"docgate-server/db"
	"docgate-server/middlewares"
	"docgate-server/models"
	"docgate-server/passwordcheck"
	"docgate-server/sessions"

	"github.com/labstack/echo/v4"
)

// GetUserHandler godoc
// @Summary      Get account profile
// @Description  Returns the authenticated user's profile and plan.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} GetUserResponse "User retrieved successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Router       /v1/users/ [get]
func GetUserHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	return c.JSON(http.StatusOK, GetUserResponse{
		Email:           user.Email,
		Role:            string(user.Role),
		IsEmailVerified: user.IsEmailVerified,
		Plan:            string(user.Plan.Name),
		Message:         "User retrieved successfully",
	})
}

// ChangePasswordHandler godoc
// @Summary      Change password
// @Description  Changes the authenticated user's password and revokes every outstanding refresh token.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        changePasswordRequest  body  ChangePasswordRequest  true  "Change password payload"
// @Success      200 {object} GenericResponse "Password changed successfully"
// @Failure      400 {object} echo.HTTPError  "Bad request"
// @Failure      401 {object} echo.HTTPError  "Unauthorized or wrong current password"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/users/password [put]
func ChangePasswordHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid change password payload:", err)
		return echo.ErrBadRequest
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		logger.Error("Current and new passwords are required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "current_password and new_password fields are required",
		}
	}

	newCrypto := crypto.NewCrypto()
	if err := newCrypto.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
		logger.Error("Current password verification failed.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Current password is incorrect",
		}
	}

	if req.CurrentPassword == req.NewPassword {
		logger.Error("New password is the same as the current password.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "New password must be different from the current password",
		}
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.NewPassword); err != nil {
		logger.Error("New password validation failed: ", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid new password: " + err.Error(),
		}
	}

	hash, err := newCrypto.HashPassword(req.NewPassword)
	if err != nil {
		logger.Errorf("Failed to hash new password: %v", err)
		return echo.ErrInternalServerError
	}

	sessionService := sessions.NewService(db.Conn, newCrypto)

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	if err := tx.Model(user).Update("password", hash).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to update password: %v", err)
		return echo.ErrInternalServerError
	}

	if err := sessionService.RevokeAllForUser(tx, user.ID); err != nil {
		tx.Rollback()
		logger.Errorf("Failed to revoke refresh tokens: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("Password changed successfully for user %d", user.ID)
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Password changed successfully. Please log in again.",
	})
}

// DeleteAccountHandler godoc
// @Summary      Delete account
// @Description  Deactivates the account, revokes all API keys and refresh tokens. Requires the current password.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        deleteAccountRequest  body  DeleteAccountRequest  true  "Delete account payload"
// @Success      204 "Account deleted"
// @Failure      401 {object} echo.HTTPError  "Unauthorized or wrong password"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/users/ [delete]
func DeleteAccountHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	var req DeleteAccountRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid delete account payload:", err)
		return echo.ErrBadRequest
	}

	newCrypto := crypto.NewCrypto()
	if err := newCrypto.VerifyPassword(req.Password, user.Password); err != nil {
		logger.Error("Password verification failed for account deletion.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Password is incorrect",
		}
	}

	sessionService := sessions.NewService(db.Conn, newCrypto)

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	if err := tx.Model(&models.APIKey{}).
		Where("user_id = ? AND revoked = ?", user.ID, false).
		Updates(map[string]any{
			"revoked":    true,
			"revoked_at": tx.NowFunc(),
			"is_active":  false,
		}).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to revoke API keys: %v", err)
		return echo.ErrInternalServerError
	}

	if err := sessionService.RevokeAllForUser(tx, user.ID); err != nil {
		tx.Rollback()
		logger.Errorf("Failed to revoke refresh tokens: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Model(user).Update("is_active", false).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to deactivate user: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("Account deleted for user %d", user.ID)
	return c.NoContent(http.StatusNoContent)
}
