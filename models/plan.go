// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

type PlanName string

const (
	FreePlan PlanName = "FREE"
	ProPlan  PlanName = "PRO"
)

// A nil limit means unlimited.
type Plan struct {
	ID                  uint     `gorm:"primaryKey"`
	Name                PlanName `gorm:"size:255;not null;default:'FREE';uniqueIndex"`
	Price               uint     `gorm:"not null;default:0"`
	Currency            string   `gorm:"size:10;not null;default:'USD'"`
	DailyRequestLimit   *int64   `gorm:"default:null"`
	MonthlyRequestLimit *int64   `gorm:"default:null"`
	MaxFileSizeMB       int64    `gorm:"not null;default:10"`
	MaxPagesPerPDF      *int64   `gorm:"default:null"`
	MaxConcurrentJobs   int      `gorm:"not null;default:1"`
	WebhooksEnabled     bool     `gorm:"not null;default:false"`
	PriorityProcessing  bool     `gorm:"not null;default:false"`
	Watermark           bool     `gorm:"not null;default:true"`
	SandboxKeysEnabled  bool     `gorm:"not null;default:true"`
	IsActive            bool     `gorm:"not null;default:true"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func init() {
	AllModels = append(AllModels, &Plan{})
}
