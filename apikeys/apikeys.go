// SPDX-License-Identifier: GPL-3.0-only

// Package apikeys issues and validates opaque bearer credentials. Raw keys
// have the shape {prefix}_{live|test}_{64 hex chars} and are never persisted:
// storage holds the SHA-256 digest for lookups plus an AES-GCM encrypted
// copy for display recovery.
package apikeys

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"docgate-server/commons"
	"docgate-server/crypto"
	"docgate-server/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	rawKeyRandomBytes = 32
	maskSuffixLen     = 4
)

var (
	ErrNotFound        = errors.New("API key not found")
	ErrSandboxDisabled = errors.New("sandbox keys are disabled")
	ErrInvalidKeyType  = errors.New("invalid API key type")
)

// CredentialRef is the tagged input of Validate: clients present either the
// raw secret or the UUID-shaped public identifier.
type CredentialRef struct {
	KeyID  string
	RawKey string
}

// ParseCredentialRef disambiguates the two input shapes once, at the
// boundary. UUID-shaped values reference a stored credential; everything
// else is treated as a raw key.
func ParseCredentialRef(value string) CredentialRef {
	if _, err := uuid.Parse(value); err == nil {
		return CredentialRef{KeyID: value}
	}
	return CredentialRef{RawKey: value}
}

type Service struct {
	conn    *gorm.DB
	crypto  *crypto.Crypto
	prefix  string
	pattern *regexp.Regexp
}

func NewService(conn *gorm.DB, c *crypto.Crypto) *Service {
	prefix := commons.GetEnv("API_KEY_PREFIX", "dg")
	return &Service{
		conn:    conn,
		crypto:  c,
		prefix:  prefix,
		pattern: regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + "_(live|test)_[0-9a-f]{64}$"),
	}
}

type CreateParams struct {
	Name           string
	Type           models.APIKeyType
	ExpiresAt      *time.Time
	AllowedDomains *string
	Metadata       map[string]any
}

type CreateResult struct {
	RawKey    string
	Key       *models.APIKey
	MaskedKey string
	Warning   string
}

// Create issues a new credential and returns the raw key exactly once.
func (s *Service) Create(user *models.User, plan *models.Plan, params CreateParams) (*CreateResult, error) {
	if params.Type == "" {
		params.Type = models.LiveKey
	}
	if params.Type != models.LiveKey && params.Type != models.TestKey {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKeyType, params.Type)
	}

	if params.Type == models.TestKey {
		if commons.GetEnv("ENABLE_SANDBOX_KEYS", "true") != "true" {
			return nil, ErrSandboxDisabled
		}
		if plan != nil && !plan.SandboxKeysEnabled {
			return nil, ErrSandboxDisabled
		}
	}

	suffix, err := crypto.GenerateRandomString("", rawKeyRandomBytes, "hex")
	if err != nil {
		return nil, err
	}
	rawKey := fmt.Sprintf("%s_%s_%s", s.prefix, params.Type, suffix)

	encryptedKey, err := s.crypto.EncryptData([]byte(rawKey), "AES-GCM")
	if err != nil {
		return nil, err
	}

	var metadata datatypes.JSON
	if params.Metadata != nil {
		metadata, err = json.Marshal(params.Metadata)
		if err != nil {
			return nil, err
		}
	}

	maskedKey := crypto.MaskKey(rawKey, maskSuffixLen)
	apiKey := models.APIKey{
		KeyHash:        crypto.HashAPIKey(rawKey),
		EncryptedKey:   encryptedKey,
		KeyPrefix:      fmt.Sprintf("%s_%s", s.prefix, params.Type),
		MaskedKey:      maskedKey,
		Name:           params.Name,
		Type:           params.Type,
		IsActive:       true,
		ExpiresAt:      params.ExpiresAt,
		AllowedDomains: params.AllowedDomains,
		Metadata:       metadata,
		UserID:         user.ID,
	}

	if err := s.conn.Create(&apiKey).Error; err != nil {
		return nil, err
	}

	return &CreateResult{
		RawKey:    rawKey,
		Key:       &apiKey,
		MaskedKey: maskedKey,
		Warning:   "Store this key securely. It will not be shown again.",
	}, nil
}

type ValidationResult struct {
	Valid  bool
	Reason string
	User   *models.User
	Key    *models.APIKey
}

func invalid(reason string) ValidationResult {
	return ValidationResult{Valid: false, Reason: reason}
}

// Validate resolves a credential reference to its owner. Checks run in a
// fixed order and the first failure short-circuits with a specific reason:
// format, existence, revoked flag, active flag, expiry, owner active flag,
// domain allowlist. Revocation is reported ahead of inactivity: Revoke also
// clears IsActive, and the reason string names the revocation rather than
// its side effect. requestDomain is matched against the allowlist when both
// are present.
func (s *Service) Validate(ref CredentialRef, requestDomain string) ValidationResult {
	var apiKey models.APIKey
	var err error

	switch {
	case ref.RawKey != "":
		if !s.pattern.MatchString(ref.RawKey) {
			return invalid("Invalid API key format")
		}
		err = s.conn.Where("key_hash = ?", crypto.HashAPIKey(ref.RawKey)).First(&apiKey).Error
	case ref.KeyID != "":
		err = s.conn.Where("key_id = ?", ref.KeyID).First(&apiKey).Error
	default:
		return invalid("Invalid API key format")
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("API key not found")
		}
		commons.Logger.Errorf("API key lookup failed: %v", err)
		return invalid("API key not found")
	}

	if apiKey.Revoked {
		return invalid("API key has been revoked")
	}
	if !apiKey.IsActive {
		return invalid("API key is inactive")
	}
	if apiKey.ExpiresAt != nil && apiKey.ExpiresAt.Before(time.Now()) {
		return invalid("API key has expired")
	}

	var user models.User
	if err := s.conn.Preload("Plan").Where("id = ?", apiKey.UserID).First(&user).Error; err != nil {
		return invalid("API key not found")
	}
	if !user.IsActive {
		return invalid("Account is inactive")
	}

	if apiKey.AllowedDomains != nil && *apiKey.AllowedDomains != "" && requestDomain != "" {
		if !domainAllowed(*apiKey.AllowedDomains, requestDomain) {
			return invalid("Domain not allowed for this API key")
		}
	}

	// Best-effort timestamp update; never part of the allow/deny decision.
	now := time.Now()
	if err := s.conn.Model(&models.APIKey{}).Where("id = ?", apiKey.ID).
		UpdateColumn("last_used_at", &now).Error; err != nil {
		commons.Logger.Warnf("Failed to update API key LastUsedAt: %v", err)
	}
	apiKey.LastUsedAt = &now

	// Sensitive fields are stripped from the returned copy.
	apiKey.KeyHash = ""
	apiKey.EncryptedKey = nil

	return ValidationResult{Valid: true, User: &user, Key: &apiKey}
}

func domainAllowed(allowlist, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, allowed := range strings.Split(allowlist, ",") {
		if strings.ToLower(strings.TrimSpace(allowed)) == domain {
			return true
		}
	}
	return false
}

// Revoke is monotone and idempotent: a revoked key stays revoked.
func (s *Service) Revoke(keyID string, userID uint) error {
	var apiKey models.APIKey
	if err := s.conn.Where("key_id = ? AND user_id = ?", keyID, userID).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if apiKey.Revoked {
		return nil
	}

	now := time.Now()
	return s.conn.Model(&apiKey).Updates(map[string]any{
		"revoked":    true,
		"is_active":  false,
		"revoked_at": &now,
	}).Error
}

// Regenerate revokes the old credential and issues a replacement carrying
// the same name, type, expiry, allowlist and metadata. The old row records
// the rotation in its metadata blob and is retained for audit.
func (s *Service) Regenerate(keyID string, user *models.User, plan *models.Plan) (*CreateResult, error) {
	var oldKey models.APIKey
	if err := s.conn.Where("key_id = ? AND user_id = ?", keyID, user.ID).First(&oldKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if oldKey.Revoked {
		return nil, fmt.Errorf("cannot regenerate a revoked API key")
	}

	metadata := map[string]any{}
	if len(oldKey.Metadata) > 0 {
		if err := json.Unmarshal(oldKey.Metadata, &metadata); err != nil {
			commons.Logger.Warnf("Failed to parse API key metadata for %s: %v", oldKey.KeyID, err)
			metadata = map[string]any{}
		}
	}

	// The replacement inherits the metadata as it stood before this
	// rotation; the rotation markers stay on the retired row only.
	var carried map[string]any
	if len(metadata) > 0 {
		carried = make(map[string]any, len(metadata))
		for k, v := range metadata {
			carried[k] = v
		}
	}

	rotationCount := int64(0)
	if v, ok := metadata["rotation_count"].(float64); ok {
		rotationCount = int64(v)
	}
	metadata["rotation_count"] = rotationCount + 1
	metadata["rotated_at"] = time.Now().Format(time.RFC3339)

	oldMetadata, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	var result *CreateResult
	err = s.conn.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&oldKey).Updates(map[string]any{
			"revoked":    true,
			"is_active":  false,
			"revoked_at": &now,
			"metadata":   datatypes.JSON(oldMetadata),
		}).Error; err != nil {
			return err
		}

		txService := &Service{conn: tx, crypto: s.crypto, prefix: s.prefix, pattern: s.pattern}
		result, err = txService.Create(user, plan, CreateParams{
			Name:           oldKey.Name,
			Type:           oldKey.Type,
			ExpiresAt:      oldKey.ExpiresAt,
			AllowedDomains: oldKey.AllowedDomains,
			Metadata:       carried,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
