package config

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrConsistency is returned when a commit itself fails after the handler
// succeeded. Callers surface it with the `consistency_error` code.
var ErrConsistency = errors.New("consistency error")

// RunInTransaction brackets one unit of work: begin, run fn, commit on nil
// error, rollback on error, panic, or context cancellation. fn may flush
// (Create/Save make generated ids visible) but must never commit itself.
func RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return ErrConsistency
	}
	return nil
}
