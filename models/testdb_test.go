package models_test

import (
	"context"
	"fmt"
	"testing"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the model layer at a fresh in-memory database. Each
// test gets its own named database so state never leaks between tests.
func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	config.SetDB(db)
	models.MigrateTable()
	t.Cleanup(func() {
		config.SetDB(nil)
		_ = sqlDB.Close()
	})
}

// registerTenant provisions a profile with its own workspace and returns
// a context scoped to it.
func registerTenant(t *testing.T, email string) (context.Context, *models.Profile, *models.Workspace) {
	t.Helper()
	ctx := context.Background()
	_, err := models.SeedDefaultSubscriptionPlan(ctx)
	require.NoError(t, err)

	profile, workspace, err := models.Register(ctx, &models.RegisterInput{
		Name:          "Test Owner",
		Email:         email,
		Password:      "secret-pass-1",
		WorkspaceName: "Workspace of " + email,
	})
	require.NoError(t, err)

	ctx = utils.SetWorkspaceIdInContext(ctx, workspace.ID)
	ctx = utils.SetUserIdInContext(ctx, profile.ID)
	return ctx, profile, workspace
}
