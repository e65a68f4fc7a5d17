package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireStockPostingLock serializes ledger posting per workspace across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction. Engines without advisory
// locks fall back to their own write serialization.
func AcquireStockPostingLock(tx *gorm.DB, workspaceId int) error {
	if tx.Dialector.Name() != "mysql" {
		return nil
	}
	lockName := fmt.Sprintf("stock_posting:%d", workspaceId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for workspace_id=%d", workspaceId)
	}
	return nil
}

func ReleaseStockPostingLock(tx *gorm.DB, workspaceId int) {
	if tx.Dialector.Name() != "mysql" {
		return
	}
	lockName := fmt.Sprintf("stock_posting:%d", workspaceId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
