// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

// RefreshToken stores only the SHA-256 of the raw token. Rotation marks the
// old row revoked and records the successor's hash, so replayed tokens are
// detectable after the fact.
type RefreshToken struct {
	ID             uint   `gorm:"primaryKey"`
	TokenHash      string `gorm:"size:64;not null;uniqueIndex"`
	Revoked        bool   `gorm:"not null;default:false"`
	RevokedAt      *time.Time
	ReplacedByHash *string `gorm:"size:64;default:null"`
	ExpiresAt      time.Time
	IPAddress      *string `gorm:"default:null"`
	UserAgent      *string `gorm:"default:null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
	UserID         uint           `gorm:"index"`
	User           User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func init() {
	AllModels = append(AllModels, &RefreshToken{})
}
