package workflow

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

func setupInternalDB(t *testing.T) {
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

// A transition loaded before the transaction must fail once another
// transition has moved the order, otherwise its ledger side effects
// would post a second time.
func TestRecheckOrderStatusRejectsStaleRead(t *testing.T) {
	setupInternalDB(t)
	ctx := context.Background()

	order := &models.Order{
		WorkspaceId:     1,
		TypeCode:        models.OrderTypePFM,
		CurrentStatusId: 3,
		CreatedBy:       1,
		IsDeleted:       utils.NewFalse(),
	}
	require.NoError(t, config.GetDB().Create(order).Error)
	stale := *order

	// another caller moves the order after our read
	require.NoError(t, config.GetDB().Model(&models.Order{}).
		Where("id = ?", order.ID).
		UpdateColumn("current_status_id", 4).Error)

	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		return recheckOrderStatus(tx, &stale)
	})
	require.ErrorIs(t, err, models.ErrConflict)

	// a fresh read passes
	fresh := stale
	fresh.CurrentStatusId = 4
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		return recheckOrderStatus(tx, &fresh)
	})
	require.NoError(t, err)
}
