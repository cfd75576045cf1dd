// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type APIKeyType string

const (
	LiveKey APIKeyType = "live"
	TestKey APIKeyType = "test"
)

// APIKey never stores the raw key. KeyHash is the deterministic lookup
// digest; EncryptedKey is the reversible copy for recovery/display.
type APIKey struct {
	ID             uint       `gorm:"primaryKey"`
	KeyID          string     `gorm:"size:36;not null;uniqueIndex"`
	KeyHash        string     `gorm:"size:64;not null;uniqueIndex"`
	EncryptedKey   []byte     `gorm:"type:blob"`
	KeyPrefix      string     `gorm:"size:32;not null"`
	MaskedKey      string     `gorm:"size:64;not null"`
	Name           string     `gorm:"size:255;not null"`
	Type           APIKeyType `gorm:"size:10;not null;default:'live'"`
	IsActive       bool       `gorm:"not null;default:true"`
	Revoked        bool       `gorm:"not null;default:false"`
	RevokedAt      *time.Time
	ExpiresAt      *time.Time
	AllowedDomains *string        `gorm:"type:text;default:null"`
	Metadata       datatypes.JSON `gorm:"default:null"`
	LastUsedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
	UserID         uint           `gorm:"index"`
	User           User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// KeyID is the public, UUID-shaped identifier clients may hold instead of
// the raw secret.
func (apiKey *APIKey) BeforeCreate(tx *gorm.DB) (err error) {
	if apiKey.KeyID == "" {
		apiKey.KeyID = uuid.NewString()
	}
	return
}

func init() {
	AllModels = append(AllModels, &APIKey{})
}
