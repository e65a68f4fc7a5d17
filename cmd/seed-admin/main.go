// seed-admin creates or updates the bootstrap operator profile together
// with its workspace. Meant for fresh environments and local setups.
//
// Usage:
//
//	DATABASE_URL=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@fabworks.local"
	adminPassword = "ch@ngeMeNow"
	adminName     = "Fabworks Admin"
)

func main() {
	ctx := utils.SetSkipTenantScopeInContext(context.Background(), true)
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DATABASE_URL.")
		os.Exit(1)
	}
	models.MigrateTable()

	if _, err := models.SeedDefaultSubscriptionPlan(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed default plan: %v\n", err)
		os.Exit(1)
	}

	var existing models.Profile
	err := db.WithContext(ctx).Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		hashed, hashErr := utils.HashPassword(adminPassword)
		if hashErr != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", hashErr)
			os.Exit(1)
		}
		if err := db.WithContext(ctx).Model(&existing).Update("password", string(hashed)).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to reset admin password: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("admin profile %s already exists (id=%d); password reset\n", adminEmail, existing.ID)
		return
	}
	if err != gorm.ErrRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to look up admin profile: %v\n", err)
		os.Exit(1)
	}

	profile, workspace, err := models.Register(ctx, &models.RegisterInput{
		Name:          adminName,
		Email:         adminEmail,
		Password:      adminPassword,
		WorkspaceName: "Fabworks",
		WorkspaceSlug: "fabworks",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to register admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created admin profile id=%d workspace id=%d (%s)\n", profile.ID, workspace.ID, workspace.Slug)
	fmt.Println("change the seeded password after first login")
}
