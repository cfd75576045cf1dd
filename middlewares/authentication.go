// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"docgate-server/apikeys"
	"docgate-server/crypto"
	"docgate-server/db"
	"docgate-server/models"
	"docgate-server/sessions"

	"github.com/labstack/echo/v4"
)

type AuthMethod int

const (
	AuthMethodSession AuthMethod = iota
	AuthMethodAPIKey
)

// bearerCredential extracts the presented credential. The API-key transport
// accepts the common header synonyms alongside a Bearer Authorization value.
func bearerCredential(c echo.Context) string {
	if v := c.Request().Header.Get("X-API-Key"); v != "" {
		return v
	}
	if v := c.Request().Header.Get("Api-Key"); v != "" {
		return v
	}
	authHeader := c.Request().Header.Get("Authorization")
	if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return after
	}
	return ""
}

// requestDomain resolves the calling origin for API-key domain allowlists.
func requestDomain(c echo.Context) string {
	origin := c.Request().Header.Get("Origin")
	if origin == "" {
		origin = c.Request().Header.Get("Referer")
	}
	if origin == "" {
		return ""
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

func VerifyAuthMiddleware(authMethods ...AuthMethod) func(echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := c.Logger()

			credential := bearerCredential(c)
			if credential == "" {
				logger.Error("Authorization header missing or invalid.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Bearer token or API key is required",
				}
			}

			if len(authMethods) == 0 {
				authMethods = []AuthMethod{AuthMethodSession}
			}

			isMethodAllowed := func(method AuthMethod) bool {
				return slices.Contains(authMethods, method)
			}

			if isMethodAllowed(AuthMethodSession) {
				sessionService := sessions.NewService(db.Conn, crypto.NewCrypto())
				if user, err := sessionService.ValidateAccessToken(credential); err == nil {
					c.Set("user", user)
					c.Set("auth_method", AuthMethodSession)
					return next(c)
				}
			}

			if isMethodAllowed(AuthMethodAPIKey) {
				apiKeyService := apikeys.NewService(db.Conn, crypto.NewCrypto())
				ref := apikeys.ParseCredentialRef(credential)
				result := apiKeyService.Validate(ref, requestDomain(c))
				if result.Valid {
					c.Set("user", result.User)
					c.Set("api_key", result.Key)
					c.Set("auth_method", AuthMethodAPIKey)
					return next(c)
				}
				logger.Debugf("API key validation failed: %s", result.Reason)
			}

			logger.Error("Authentication failed.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired authentication token",
			}
		}
	}
}

func RequireAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := GetAuthenticatedUser(c)
		if err != nil || user.Role != models.RoleAdmin {
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired authentication token",
			}
		}
		return next(c)
	}
}

func GetAuthenticatedUser(c echo.Context) (*models.User, error) {
	if user, ok := c.Get("user").(*models.User); ok {
		return user, nil
	}
	return nil, errors.New("no authenticated user found")
}

// GetAuthenticatedAPIKey returns the validated credential when the request
// authenticated with an API key, nil for session requests.
func GetAuthenticatedAPIKey(c echo.Context) *models.APIKey {
	if apiKey, ok := c.Get("api_key").(*models.APIKey); ok {
		return apiKey
	}
	return nil
}
