// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"docgate-server/commons"
	"docgate-server/handlers"
	"docgate-server/middlewares"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	commons.Logger.Debug("Registering v1 routes")
	api_v1 := e.Group("/v1")
	api_v1.POST("/auth/signup", handlers.SignupHandler)
	api_v1.POST("/auth/login", handlers.LoginHandler)
	api_v1.POST("/auth/refresh", handlers.RefreshTokenHandler)
	api_v1.POST("/auth/logout", handlers.LogoutHandler)
	api_v1.POST("/auth/forgot-password", handlers.ForgotPasswordHandler)
	api_v1.POST("/auth/reset-password", handlers.ResetPasswordHandler)
	api_v1.POST("/auth/verify-email", handlers.VerifyEmailHandler)
	api_v1.POST("/auth/send-verification-email", handlers.SendVerificationEmailHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession))
	api_v1.POST("/api-keys", handlers.CreateAPIKeyHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession))
	api_v1.GET("/api-keys", handlers.ListAPIKeysHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession))
	api_v1.DELETE("/api-keys/:key_id", handlers.RevokeAPIKeyHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession))
	api_v1.POST("/api-keys/:key_id/regenerate", handlers.RegenerateAPIKeyHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession))
	api_v1.POST("/convert", handlers.ConvertDocumentHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession, middlewares.AuthMethodAPIKey))
	api_v1.GET("/quota", handlers.GetQuotaStatusHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession, middlewares.AuthMethodAPIKey))
	api_v1.GET("/users/", handlers.GetUserHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession))
	api_v1.DELETE("/users/", handlers.DeleteAccountHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession))
	api_v1.PUT("/users/password", handlers.ChangePasswordHandler, middlewares.VerifyAuthMiddleware(middlewares.AuthMethodSession))
	api_v1.GET("/plans", handlers.GetPlansHandler)
	commons.Logger.Info("v1 routes registered successfully")
}
