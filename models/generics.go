package models

import (
	"context"
	"errors"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resource is anything owned by a workspace.
type Resource interface {
	GetWorkspaceId() int
}

// LockForUpdate adds FOR UPDATE on engines with row locks. SQLite has a
// single writer, so the plain query is already serialized there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ListParams is the offset/limit pair every collection read accepts.
// Limit is clamped to the entity class ceiling before querying.
type ListParams struct {
	Skip           int
	Limit          int
	IncludeDeleted bool
}

const (
	// operational entities (orders, ledger rows, invoices ...)
	MaxListLimit = 100
	// reference data (factories, statuses, tags ...)
	MaxReferenceListLimit = 1000
)

func (p *ListParams) Clamp(max int) {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 || p.Limit > max {
		p.Limit = max
	}
}

// GetResource fetches one workspace-scoped row, redis-first, verifying the
// cached copy still belongs to the caller's workspace.
func GetResource[T Resource](ctx context.Context, id int, associations ...string) (*T, error) {

	workspaceId, ok := utils.GetWorkspaceIdFromContext(ctx)
	if !ok || workspaceId == 0 {
		return nil, errors.New("workspace id is required")
	}
	// find in redis
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		return nil, err
	}
	// if not found in redis
	if result == nil {
		// fetch from db
		result, err = utils.FetchModel[T](ctx, workspaceId, id, associations...)
		if err != nil {
			return nil, ErrNotFound
		}

		// store in redis
		if err := utils.StoreRedis[T](result, id); err != nil {
			return nil, err
		}
	} else if (*result).GetWorkspaceId() != workspaceId {
		// cached row owned by another tenant: treat as missing
		return nil, ErrCrossTenantAccess
	}

	return result, nil
}

// ListResource pages a workspace-scoped collection. Soft-deletable models
// are filtered to live rows unless IncludeDeleted is set.
func ListResource[T any](ctx context.Context, params ListParams, maxLimit int, softDeletable bool) ([]*T, int64, error) {
	workspaceId, ok := utils.GetWorkspaceIdFromContext(ctx)
	if !ok || workspaceId == 0 {
		return nil, 0, errors.New("workspace id is required")
	}
	params.Clamp(maxLimit)

	db := config.GetDB()
	var model T
	query := db.WithContext(ctx).Model(&model).Where("workspace_id = ?", workspaceId)
	if softDeletable && !params.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*T
	if err := query.Offset(params.Skip).Limit(params.Limit).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// createScoped persists a single row outside any larger unit of work.
func createScoped(ctx context.Context, row any) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(row).Error
}

// ToggleActive flips the is_active flag on a catalog row and records a
// history entry.
func ToggleActive[T Resource](ctx context.Context, workspaceId int, id int, isActive bool) (*T, error) {
	result, err := utils.FetchModel[T](ctx, workspaceId, id)
	if err != nil {
		return nil, ErrNotFound
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(result).UpdateColumn("is_active", isActive).Error; err != nil {
		return nil, err
	}

	action := historyActionInactive
	if isActive {
		action = historyActionActive
	}
	if err := createHistory(db.WithContext(ctx), action, id, utils.GetTypeName[T](), nil, nil, ""); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisInstance[T](id); err != nil {
		return nil, err
	}
	return result, nil
}
