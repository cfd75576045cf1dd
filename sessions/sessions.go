// SPDX-License-Identifier: GPL-3.0-only

// Package sessions issues and rotates the signed access/refresh token pairs
// that gate interactive and administrative requests. Only the SHA-256 of a
// refresh token is persisted; every failure on the refresh path collapses to
// one generic unauthorized outcome so internal distinctions never cross the
// trust boundary.
package sessions

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"docgate-server/commons"
	"docgate-server/crypto"
	"docgate-server/models"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var ErrUnauthorized = errors.New("invalid or expired token")

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service struct {
	conn   *gorm.DB
	crypto *crypto.Crypto
}

func NewService(conn *gorm.DB, c *crypto.Crypto) *Service {
	return &Service{conn: conn, crypto: c}
}

func jwtSecret() []byte {
	return []byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key"))
}

func accessTokenTTL() time.Duration {
	minutes, err := strconv.Atoi(commons.GetEnv("ACCESS_TOKEN_TTL_MINUTES", "15"))
	if err != nil || minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func refreshTokenTTL() time.Duration {
	hours, err := strconv.Atoi(commons.GetEnv("REFRESH_TOKEN_TTL_HOURS", "720"))
	if err != nil || hours <= 0 {
		hours = 720
	}
	return time.Duration(hours) * time.Hour
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func signToken(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

func parseToken(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// IssuePair creates a signed access/refresh pair and persists the refresh
// token's hash with its expiry and request provenance.
func (s *Service) IssuePair(user *models.User, ipAddress, userAgent string) (*TokenPair, error) {
	now := time.Now()

	jti, err := crypto.GenerateRandomString("", 16, "hex")
	if err != nil {
		return nil, err
	}

	accessToken, err := signToken(jwt.MapClaims{
		"iss":  "docgate",
		"iat":  now.Unix(),
		"uid":  user.ID,
		"role": string(user.Role),
		"typ":  "access",
		"exp":  now.Add(accessTokenTTL()).Unix(),
	})
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(refreshTokenTTL())
	refreshToken, err := signToken(jwt.MapClaims{
		"iss": "docgate",
		"iat": now.Unix(),
		"uid": user.ID,
		"jti": jti,
		"typ": "refresh",
		"exp": refreshExp.Unix(),
	})
	if err != nil {
		return nil, err
	}

	row := models.RefreshToken{
		TokenHash: hashToken(refreshToken),
		ExpiresAt: refreshExp,
		UserID:    user.ID,
	}
	if ipAddress != "" {
		row.IPAddress = &ipAddress
	}
	if userAgent != "" {
		row.UserAgent = &userAgent
	}
	if err := s.conn.Create(&row).Error; err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Login authenticates the user's password and issues a token pair. All
// credential failures look identical to the caller.
func (s *Service) Login(email, password, ipAddress, userAgent string) (*models.User, *TokenPair, error) {
	var user models.User
	if err := s.conn.Preload("Plan").Where("email = ?", commons.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, nil, ErrUnauthorized
	}
	if commons.GetEnv("REQUIRE_EMAIL_VERIFICATION", "false") == "true" && !user.IsEmailVerified {
		return nil, nil, ErrUnauthorized
	}
	if err := s.crypto.VerifyPassword(password, user.Password); err != nil {
		return nil, nil, ErrUnauthorized
	}

	pair, err := s.IssuePair(&user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Refresh redeems a refresh token for a new pair. The old row is revoked
// with a conditional update so a replayed token loses the race: exactly one
// concurrent redemption succeeds.
func (s *Service) Refresh(rawRefreshToken, ipAddress, userAgent string) (*models.User, *TokenPair, error) {
	claims, err := parseToken(rawRefreshToken)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return nil, nil, ErrUnauthorized
	}

	tokenHash := hashToken(rawRefreshToken)

	var row models.RefreshToken
	if err := s.conn.Where("token_hash = ?", tokenHash).First(&row).Error; err != nil {
		return nil, nil, ErrUnauthorized
	}
	if row.Revoked || row.ExpiresAt.Before(time.Now()) {
		return nil, nil, ErrUnauthorized
	}

	var user models.User
	if err := s.conn.Preload("Plan").Where("id = ?", row.UserID).First(&user).Error; err != nil {
		return nil, nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, nil, ErrUnauthorized
	}

	pair, err := s.IssuePair(&user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	newHash := hashToken(pair.RefreshToken)
	now := time.Now()
	res := s.conn.Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", row.ID, false).
		Updates(map[string]any{
			"revoked":          true,
			"revoked_at":       &now,
			"replaced_by_hash": &newHash,
		})
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the rotation race; invalidate the pair we just minted.
		s.conn.Model(&models.RefreshToken{}).
			Where("token_hash = ?", newHash).
			Updates(map[string]any{"revoked": true, "revoked_at": &now})
		return nil, nil, ErrUnauthorized
	}

	return &user, pair, nil
}

// Logout revokes the matching refresh row. Unknown or already-revoked
// tokens are not an error.
func (s *Service) Logout(rawRefreshToken string) error {
	now := time.Now()
	return s.conn.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", hashToken(rawRefreshToken), false).
		Updates(map[string]any{"revoked": true, "revoked_at": &now}).Error
}

// RevokeAllForUser revokes every outstanding refresh token, forcing
// re-authentication everywhere. Used after password changes and resets.
func (s *Service) RevokeAllForUser(tx *gorm.DB, userID uint) error {
	now := time.Now()
	return tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": &now}).Error
}

// ValidateAccessToken verifies an access JWT and resolves its subject.
func (s *Service) ValidateAccessToken(rawAccessToken string) (*models.User, error) {
	claims, err := parseToken(rawAccessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if typ, _ := claims["typ"].(string); typ != "access" {
		return nil, ErrUnauthorized
	}
	uid, ok := claims["uid"].(float64)
	if !ok {
		return nil, ErrUnauthorized
	}

	var user models.User
	if err := s.conn.Preload("Plan").Where("id = ?", uint(uid)).First(&user).Error; err != nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return &user, nil
}
