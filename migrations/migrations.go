// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"fmt"

	"docgate-server/commons"
	"docgate-server/crypto"
	"docgate-server/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func int64Ptr(v int64) *int64 { return &v }

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_seed_plans",
			Migrate: func(tx *gorm.DB) error {
				plans := []models.Plan{
					{
						Name:                models.FreePlan,
						Price:               0,
						Currency:            "USD",
						DailyRequestLimit:   int64Ptr(100),
						MonthlyRequestLimit: int64Ptr(1000),
						MaxFileSizeMB:       10,
						MaxPagesPerPDF:      int64Ptr(50),
						MaxConcurrentJobs:   1,
						WebhooksEnabled:     false,
						PriorityProcessing:  false,
						Watermark:           true,
						SandboxKeysEnabled:  true,
						IsActive:            true,
					},
					{
						Name:                models.ProPlan,
						Price:               2900,
						Currency:            "USD",
						MonthlyRequestLimit: int64Ptr(100000),
						MaxFileSizeMB:       100,
						MaxConcurrentJobs:   5,
						WebhooksEnabled:     true,
						PriorityProcessing:  true,
						Watermark:           false,
						SandboxKeysEnabled:  true,
						IsActive:            true,
					},
				}

				for i := range plans {
					existing := models.Plan{}
					if err := tx.Where("name = ?", plans[i].Name).
						Attrs(plans[i]).FirstOrCreate(&existing).Error; err != nil {
						return fmt.Errorf("failed to create plan %s: %w", plans[i].Name, err)
					}
				}

				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
		{
			ID: "002_seed_admin_user",
			Migrate: func(tx *gorm.DB) error {
				adminEmail := commons.GetEnv("ADMIN_EMAIL")
				adminPassword := commons.GetEnv("ADMIN_PASSWORD")
				if adminEmail == "" || adminPassword == "" {
					commons.Logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin bootstrap")
					return nil
				}

				var proPlan models.Plan
				if err := tx.Where("name = ?", models.ProPlan).First(&proPlan).Error; err != nil {
					return fmt.Errorf("failed to fetch pro plan: %w", err)
				}

				hash, err := crypto.NewCrypto().HashPassword(adminPassword)
				if err != nil {
					return fmt.Errorf("failed to hash admin password: %w", err)
				}

				admin := models.User{}
				if err := tx.Where("email = ?", commons.NormalizeEmail(adminEmail)).
					Attrs(models.User{
						Email:           commons.NormalizeEmail(adminEmail),
						Password:        hash,
						Role:            models.RoleAdmin,
						IsActive:        true,
						IsEmailVerified: true,
						PlanID:          proPlan.ID,
					}).FirstOrCreate(&admin).Error; err != nil {
					return fmt.Errorf("failed to create admin user: %w", err)
				}

				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
	}
}
