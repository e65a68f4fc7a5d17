package utils

import (
	"context"
	"errors"
	"reflect"

	"bitbucket.org/fabworks/mfg_backend/config"
)

// check if id exists, using ctx's workspace_id in WHERE, returns RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, workspaceId int, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, workspaceId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// check if ALL ids exist, using ctx's workspace_id in WHERE, returns RecordNotFound error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, workspaceId int, ids []ID) error {
	unqIds := UniqueSlice(ids)

	count, err := ResourceCountWhere[M](ctx, workspaceId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, workspaceId int, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, workspaceId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, workspaceId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE workspace_id = ? AND $condition
// workspace_id can be 0 for globally-scoped tables (profiles, plans)
func ResourceCountWhere[T any](ctx context.Context, workspaceId int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if workspaceId > 0 {
		dbCtx.Where("workspace_id = ?", workspaceId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
