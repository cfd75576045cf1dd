// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

// UsageRecord is the permanent usage ledger: one row per successfully
// completed conversion. Counter caches are rebuilt from the billable rows
// after eviction or a cold start; sandbox conversions are recorded for audit
// but never counted.
type UsageRecord struct {
	ID        uint `gorm:"primaryKey"`
	Pages     int  `gorm:"not null;default:0"`
	SizeBytes int64
	Status    string `gorm:"size:50;not null;default:'COMPLETED'"`
	Billable  bool   `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	UserID    uint           `gorm:"index"`
	User      User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	APIKeyID  *uint
}

func init() {
	AllModels = append(AllModels, &UsageRecord{})
}
