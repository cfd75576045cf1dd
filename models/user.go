// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

var AllModels []any

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID              uint     `gorm:"primaryKey"`
	Email           string   `gorm:"size:255;not null;uniqueIndex"`
	Password        string   `gorm:"not null"`
	Role            UserRole `gorm:"size:20;not null;default:'user'"`
	IsActive        bool     `gorm:"not null;default:true"`
	IsEmailVerified bool     `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
	PlanID          uint
	Plan            Plan `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func init() {
	AllModels = append(AllModels, &User{})
}
