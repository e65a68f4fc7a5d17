package utils

import (
	"context"

	"bitbucket.org/fabworks/mfg_backend/config"
)

/* DB fetching */

// fetch model by bare primary key. Reserved for tenancy-crossing lookups
// (profile for login, subscription plan); everything else goes through
// FetchModel with a workspace id.
// (may return RecordNotFound)
func FetchSingleModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch model from db using (workspace_id, id) composite lookup
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, workspaceId int, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("workspace_id = ?", workspaceId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// MaxFetchAll bounds unpaged reference-list reads. Matches the
// reference list ceiling used by the paged list helpers.
const MaxFetchAll = 1000

// fetch all models from db scoped to the workspace, capped at MaxFetchAll
func FetchAllModels[T any](ctx context.Context, workspaceId int, associations ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("workspace_id = ?", workspaceId).Limit(MaxFetchAll)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
