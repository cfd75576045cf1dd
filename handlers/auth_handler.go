// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"docgate-server/commons"
	"docgate-server/crypto"
	"docgate-server/db"
	"docgate-server/middlewares"
	"docgate-server/models"
	"docgate-server/notifications"
	"docgate-server/passwordcheck"
	"docgate-server/sessions"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SignupHandler godoc
// @Summary      Register a new user
// @Description  Creates a new user account on the default FREE plan.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        signupRequest  body  SignupRequest  true  "Signup request payload"
// @Success      201 {object} AuthResponse 	 "Signup successful"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing required fields"
// @Failure      409 {object} echo.HTTPError     "Duplicate user"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/auth/signup [post]
func SignupHandler(c echo.Context) error {
	logger := c.Logger()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid signup request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}

	if req.Password == "" {
		logger.Error("Password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "password field is required",
		}
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.Password); err != nil {
		logger.Error("Password validation failed: ", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: fmt.Sprintf("Invalid password: %v", err.Error()),
		}
	}

	email := commons.NormalizeEmail(req.Email)

	count := db.Conn.Where("email = ?", email).First(&models.User{}).RowsAffected
	if count > 0 {
		logger.Errorf("This email is already registered.")
		return &echo.HTTPError{
			Code:    http.StatusConflict,
			Message: "This email is already registered, please try another one.",
		}
	}

	newCrypto := crypto.NewCrypto()
	hash, err := newCrypto.HashPassword(req.Password)
	if err != nil {
		logger.Errorf("Failed to hash password: %v", err)
		return echo.ErrInternalServerError
	}

	plan := models.Plan{}
	if err := db.Conn.Where("name = ?", models.FreePlan).First(&plan).Error; err != nil {
		logger.Errorf("Failed to find free plan: %v", err)
		return echo.ErrInternalServerError
	}

	user := models.User{
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
		IsActive: true,
		PlanID:   plan.ID,
	}

	if err := db.Conn.Create(&user).Error; err != nil {
		logger.Errorf("Failed to create user: %v", err)
		return echo.ErrInternalServerError
	}
	user.Plan = plan

	verificationToken, err := crypto.GenerateRandomString("evt_", 32, "hex")
	if err != nil {
		logger.Errorf("Failed to generate verification token: %v", err)
		return echo.ErrInternalServerError
	}

	verification := models.EmailVerification{
		UserID:    user.ID,
		Token:     verificationToken,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		IsUsed:    false,
	}

	if err := db.Conn.Create(&verification).Error; err != nil {
		logger.Errorf("Failed to create verification record: %v", err)
	}

	sessionService := sessions.NewService(db.Conn, newCrypto)
	pair, err := sessionService.IssuePair(&user, c.RealIP(), c.Request().Header.Get("User-Agent"))
	if err != nil {
		logger.Errorf("Failed to issue token pair after signup: %v", err)
		return echo.ErrInternalServerError
	}

	verifyLink := commons.GetEnv("EMAIL_VERIFICATION_URL", "https://docgate.dev") + "/verify-email?token=" + verificationToken
	go notifications.DispatchNotification(notifications.Email, notifications.SMTP, notifications.NotificationData{
		To:       email,
		Subject:  "Welcome to DocGate!",
		Template: "welcome-with-verification",
		Variables: map[string]any{
			"verification_link": verifyLink,
			"expiration_hours":  "24",
		},
	})

	logger.Infof("User signed up successfully")
	return c.JSON(http.StatusCreated, AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        user.Email,
		Plan:         string(plan.Name),
		Message:      "Signup successful",
	})
}

// LoginHandler godoc
// @Summary      Login a user
// @Description  Authenticates a user and returns an access/refresh token pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body  LoginRequest  true  "Login request payload"
// @Success      200 {object} AuthResponse 	 "Login successful"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing required fields"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/auth/login [post]
func LoginHandler(c echo.Context) error {
	logger := c.Logger()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid login request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}

	if req.Password == "" {
		logger.Error("Password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "password field is required",
		}
	}

	sessionService := sessions.NewService(db.Conn, crypto.NewCrypto())
	user, pair, err := sessionService.Login(req.Email, req.Password, c.RealIP(), c.Request().Header.Get("User-Agent"))
	if err != nil {
		if errors.Is(err, sessions.ErrUnauthorized) {
			logger.Error("Login failed.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Credentials are incorrect, please check your email and password",
			}
		}
		logger.Errorf("Login failed: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        user.Email,
		Plan:         string(user.Plan.Name),
		Message:      "Login successful",
	})
}

// RefreshTokenHandler godoc
// @Summary      Rotate a refresh token
// @Description  Redeems a refresh token for a new access/refresh pair. The old refresh token is revoked; redeeming it again fails.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refreshRequest  body  RefreshRequest  true  "Refresh request payload"
// @Success      200 {object} AuthResponse 	 "Refresh successful"
// @Failure      401 {object} echo.HTTPError     "Invalid or expired refresh token"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/auth/refresh [post]
func RefreshTokenHandler(c echo.Context) error {
	logger := c.Logger()

	var req RefreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		logger.Error("Invalid refresh request payload.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired refresh token",
		}
	}

	sessionService := sessions.NewService(db.Conn, crypto.NewCrypto())
	user, pair, err := sessionService.Refresh(req.RefreshToken, c.RealIP(), c.Request().Header.Get("User-Agent"))
	if err != nil {
		if errors.Is(err, sessions.ErrUnauthorized) {
			logger.Error("Refresh token rejected.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired refresh token",
			}
		}
		logger.Errorf("Refresh failed: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        user.Email,
		Plan:         string(user.Plan.Name),
		Message:      "Token refreshed successfully",
	})
}

// LogoutHandler godoc
// @Summary      Logout a user
// @Description  Revokes the presented refresh token. Unknown tokens are treated as already logged out.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        logoutRequest  body  LogoutRequest  true  "Logout request payload"
// @Success      204 "Logout successful"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/auth/logout [post]
func LogoutHandler(c echo.Context) error {
	logger := c.Logger()

	var req LogoutRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid logout request payload:", err)
		return echo.ErrBadRequest
	}

	if req.RefreshToken != "" {
		sessionService := sessions.NewService(db.Conn, crypto.NewCrypto())
		if err := sessionService.Logout(req.RefreshToken); err != nil {
			logger.Errorf("Failed to revoke refresh token: %v", err)
			return echo.ErrInternalServerError
		}
	}

	logger.Infof("User logged out successfully")
	return c.NoContent(http.StatusNoContent)
}

// ForgotPasswordHandler godoc
// @Summary      Request password reset
// @Description  Sends a password reset email to the user's registered email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        forgotPasswordRequest  body  ForgotPasswordRequest  true  "Forgot password request"
// @Success      200 {object} GenericResponse "Password reset email sent successfully"
// @Failure      400 {object} echo.HTTPError  "Bad request"
// @Failure      429 {object} echo.HTTPError  "Too many requests"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/forgot-password [post]
func ForgotPasswordHandler(c echo.Context) error {
	logger := c.Logger()

	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid forgot password request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}

	genericReply := GenericResponse{
		Message: "If the email you entered is linked to an account, you'll " +
			"receive password reset instructions in your mail. Be sure to check your inbox and spam folder.",
	}

	user := models.User{}
	if err := db.Conn.Where("email = ?", commons.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("User not found for password reset.")
			return c.JSON(http.StatusOK, genericReply)
		}
		logger.Errorf("Failed to find user: %v", err)
		return echo.ErrInternalServerError
	}

	recentReset := models.PasswordReset{}
	if err := db.Conn.Where("user_id = ? AND created_at > ?", user.ID, time.Now().Add(-5*time.Minute)).
		First(&recentReset).Error; err == nil {
		logger.Info("Recent password reset email already sent")
		return &echo.HTTPError{
			Code:    http.StatusTooManyRequests,
			Message: "Please wait 5 minutes before requesting another password reset email",
		}
	}

	token, err := crypto.GenerateRandomString("prt_", 32, "hex")
	if err != nil {
		logger.Errorf("Failed to generate password reset token: %v", err)
		return echo.ErrInternalServerError
	}

	passwordReset := models.PasswordReset{}
	if err := db.Conn.Where("user_id = ? AND is_used = ?", user.ID, false).
		Assign(models.PasswordReset{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: time.Now().Add(24 * time.Hour),
			IsUsed:    false,
		}).FirstOrCreate(&passwordReset).Error; err != nil {
		logger.Errorf("Failed to check existing password reset tokens: %v", err)
		return echo.ErrInternalServerError
	}

	resetLink := commons.GetEnv("EMAIL_VERIFICATION_URL", "https://docgate.dev") + "/reset-password?token=" + token
	go notifications.DispatchNotification(notifications.Email, notifications.SMTP, notifications.NotificationData{
		To:       user.Email,
		Subject:  "Reset Your DocGate Password",
		Template: "password-reset",
		Variables: map[string]any{
			"reset_link":       resetLink,
			"expiration_hours": "24",
		},
	})

	logger.Infof("Password reset email sent successfully.")
	return c.JSON(http.StatusOK, genericReply)
}

// ResetPasswordHandler godoc
// @Summary      Reset password
// @Description  Resets the user's password using the token sent via email and revokes every outstanding refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        resetPasswordRequest  body  ResetPasswordRequest  true  "Password reset request"
// @Success      200 {object} GenericResponse "Password reset successfully"
// @Failure      400 {object} echo.HTTPError  "Bad request or invalid token"
// @Failure      410 {object} echo.HTTPError  "Token expired"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/reset-password [post]
func ResetPasswordHandler(c echo.Context) error {
	logger := c.Logger()

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid password reset request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Token == "" {
		logger.Error("Password reset token is required")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "token field is required",
		}
	}

	if req.NewPassword == "" {
		logger.Error("New password is required")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "new_password field is required",
		}
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.NewPassword); err != nil {
		logger.Error("New password validation failed: ", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid new password: " + err.Error(),
		}
	}

	passwordReset := models.PasswordReset{}
	if err := db.Conn.Preload("User").
		Where("token = ? AND is_used = ?", req.Token, false).
		First(&passwordReset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Invalid or already used password reset token")
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "Invalid or already used password reset token",
			}
		}
		logger.Errorf("Failed to find password reset record: %v", err)
		return echo.ErrInternalServerError
	}

	if time.Now().After(passwordReset.ExpiresAt) {
		logger.Error("Password reset token has expired")
		return &echo.HTTPError{
			Code:    http.StatusGone,
			Message: "Password reset token has expired. Please request a new one.",
		}
	}

	newCrypto := crypto.NewCrypto()

	if err := newCrypto.VerifyPassword(req.NewPassword, passwordReset.User.Password); err == nil {
		logger.Error("New password is the same as current password.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "New password must be different from the current password",
		}
	}

	hashedNewPassword, err := newCrypto.HashPassword(req.NewPassword)
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

	if err := tx.Model(&passwordReset.User).Update("password", hashedNewPassword).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to update user password: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Model(&passwordReset).Update("is_used", true).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to mark password reset token as used: %v", err)
		return echo.ErrInternalServerError
	}

	if err := sessionService.RevokeAllForUser(tx, passwordReset.User.ID); err != nil {
		tx.Rollback()
		logger.Errorf("Failed to revoke user refresh tokens: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("Password reset successful for user ID: %d", passwordReset.User.ID)
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Password reset successfully. Please log in with your new password.",
	})
}

// VerifyEmailHandler godoc
// @Summary      Verify email address
// @Description  Verifies the user's email address using the token sent via email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        verifyEmailRequest  body  VerifyEmailRequest  true  "Email verification request"
// @Success      200 {object} GenericResponse "Email verified successfully"
// @Failure      400 {object} echo.HTTPError  "Bad request or invalid token"
// @Failure      410 {object} echo.HTTPError  "Token expired"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/verify-email [post]
func VerifyEmailHandler(c echo.Context) error {
	logger := c.Logger()

	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid verification request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Token == "" {
		logger.Error("Verification token is required")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "token field is required",
		}
	}

	verification := models.EmailVerification{}
	if err := db.Conn.Preload("User").
		Where("token = ? AND is_used = ?", req.Token, false).
		First(&verification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Invalid or already used verification token")
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "Invalid or already used verification token",
			}
		}
		logger.Errorf("Failed to find verification record: %v", err)
		return echo.ErrInternalServerError
	}

	if time.Now().After(verification.ExpiresAt) {
		logger.Error("Verification token has expired")
		return &echo.HTTPError{
			Code:    http.StatusGone,
			Message: "Verification token has expired. Please request a new one.",
		}
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	verification.IsUsed = true
	if err := tx.Save(&verification).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to mark token as used: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Model(&verification.User).
		Update("is_email_verified", true).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to update user verification status: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("Email verified successfully for user %d", verification.UserID)
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Email verified successfully",
	})
}

// SendVerificationEmailHandler godoc
// @Summary      Send verification email
// @Description  Sends a verification email to the user's registered email address
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} GenericResponse "Verification email sent successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      409 {object} echo.HTTPError  "Email already verified"
// @Failure      429 {object} echo.HTTPError  "Too many requests"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/send-verification-email [post]
func SendVerificationEmailHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	if user.IsEmailVerified {
		logger.Info("User email is already verified")
		return &echo.HTTPError{
			Code:    http.StatusConflict,
			Message: "Email is already verified",
		}
	}

	recentVerification := models.EmailVerification{}
	if err := db.Conn.Where("user_id = ? AND created_at > ?", user.ID, time.Now().Add(-5*time.Minute)).
		First(&recentVerification).Error; err == nil {
		logger.Info("Recent verification email already sent")
		return &echo.HTTPError{
			Code:    http.StatusTooManyRequests,
			Message: "Please wait 5 minutes before requesting another verification email",
		}
	}

	token, err := crypto.GenerateRandomString("evt_", 32, "hex")
	if err != nil {
		logger.Errorf("Failed to generate verification token: %v", err)
		return echo.ErrInternalServerError
	}

	emailVerification := models.EmailVerification{}
	if err := db.Conn.Where("user_id = ? AND is_used = ?", user.ID, false).
		Assign(models.EmailVerification{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: time.Now().Add(24 * time.Hour),
		}).FirstOrCreate(&emailVerification).Error; err != nil {
		logger.Errorf("Failed to check existing verification tokens: %v", err)
		return echo.ErrInternalServerError
	}

	verifyLink := commons.GetEnv("EMAIL_VERIFICATION_URL", "https://docgate.dev") + "/verify-email?token=" + token
	go notifications.DispatchNotification(notifications.Email, notifications.SMTP, notifications.NotificationData{
		To:       user.Email,
		Subject:  "DocGate Account Email Verification",
		Template: "verification",
		Variables: map[string]any{
			"verification_link": verifyLink,
			"expiration_hours":  "24",
		},
	})

	logger.Infof("Verification email sent successfully.")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Verification email sent successfully",
	})
}
