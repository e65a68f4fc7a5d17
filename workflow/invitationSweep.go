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

// SweepInvitations marks every pending invitation past its expiry as
// expired, and flips due invoices to overdue while it is at it. A redis
// lock keeps multiple instances from sweeping at once; if the lock is
// unavailable the sweep proceeds anyway, the updates are idempotent.
func SweepInvitations(ctx context.Context, logger *logrus.Logger) error {
	redisLock := config.GetRedisLock()
	var lock *redislock.Lock
	if redisLock != nil {
		var err error
		lock, err = redisLock.Obtain(ctx, "lock:invitation-sweep", 60*time.Second, nil)
		if err == redislock.ErrNotObtained {
			logger.WithFields(logrus.Fields{"field": "SweepInvitations"}).
				Info("another instance holds the sweep lock; skipping")
			return nil
		} else if err != nil {
			logger.WithFields(logrus.Fields{"field": "SweepInvitations"}).
				Warn("could not reach redis for sweep lock; proceeding without it")
			lock = nil
		}
	}
	if lock != nil {
		defer func() { _ = lock.Release(ctx) }()
	}

	now := time.Now()
	expired, err := models.ExpirePendingInvitations(ctx, now)
	if err != nil {
		return err
	}

	scopeless := utils.SetSkipTenantScopeInContext(ctx, true)
	var overdue int64
	err = config.RunInTransaction(scopeless, func(tx *gorm.DB) error {
		overdue, err = models.RefreshOverdueInvoices(tx, now)
		return err
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"field":               "SweepInvitations",
		"invitations_expired": expired,
		"invoices_overdue":    overdue,
	}).Info("sweep finished")
	return nil
}
