package workflow

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ResetMonthlyOrderCounters zeroes the per-workspace order counter for
// every workspace whose counter still covers a previous month. The plan
// limit check also resets lazily, so this is a tidy-up that keeps usage
// numbers honest for reporting between orders.
func ResetMonthlyOrderCounters(ctx context.Context, logger *logrus.Logger) error {
	redisLock := config.GetRedisLock()
	var lock *redislock.Lock
	if redisLock != nil {
		var err error
		lock, err = redisLock.Obtain(ctx, "lock:orders-month-reset", 60*time.Second, nil)
		if err == redislock.ErrNotObtained {
			logger.WithFields(logrus.Fields{"field": "ResetMonthlyOrderCounters"}).
				Info("another instance holds the reset lock; skipping")
			return nil
		} else if err != nil {
			logger.WithFields(logrus.Fields{"field": "ResetMonthlyOrderCounters"}).
				Warn("could not reach redis for reset lock; proceeding without it")
			lock = nil
		}
	}
	if lock != nil {
		defer func() { _ = lock.Release(ctx) }()
	}

	thisMonth := utils.MonthStart(time.Now())
	scopeless := utils.SetSkipTenantScopeInContext(ctx, true)
	var reset int64
	err := config.RunInTransaction(scopeless, func(tx *gorm.DB) error {
		result := tx.Model(&models.Workspace{}).
			Where("orders_month < ?", thisMonth).
			UpdateColumns(map[string]interface{}{
				"current_orders_this_month": 0,
				"orders_month":              thisMonth,
			})
		reset = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"field":            "ResetMonthlyOrderCounters",
		"workspaces_reset": reset,
	}).Info("monthly order counters reset")
	return nil
}
