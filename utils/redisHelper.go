package utils

import (
	"fmt"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
)

// check if model has expiration date
func typeHasExpiration(typeName string) bool {
	expirableTypes := map[string]bool{
		"Item":             true,
		"ItemTag":          true,
		"SubscriptionPlan": true,
		"OrderWorkflow":    true,
	}
	return expirableTypes[typeName]
}

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	typeName := GetTypeName[T]()
	key := typeName + ":" + fmt.Sprint(id)

	var duration time.Duration
	if typeHasExpiration(typeName) {
		duration = GetCacheLifespan()
	}
	return config.SetRedisObject(key, &obj, duration)
}

// store a per-workspace list
func StoreRedisList[T any](obj any, workspaceId int) error {
	typeName := GetTypeName[T]()
	key := typeName + "List:" + fmt.Sprint(workspaceId)

	var duration time.Duration
	if typeHasExpiration(typeName) {
		duration = GetCacheLifespan()
	}
	return config.SetRedisObject(key, &obj, duration)
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// retrieve a per-workspace list
func RetrieveRedisList[T any](workspaceId int) ([]*T, error) {
	key := GetTypeName[T]() + "List:" + fmt.Sprint(workspaceId)

	var result []*T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear instance cache, Type:$id
func RemoveRedisInstance[T any](id int) error {
	return config.RemoveRedisKey(GetTypeName[T]() + ":" + fmt.Sprint(id))
}

// clear list, TypeList:$workspace_id
func RemoveRedisList[T any](workspaceId int) error {
	return config.RemoveRedisKey(GetTypeName[T]() + "List:" + fmt.Sprint(workspaceId))
}

// remove cached permission set for (workspace, role)
func ClearPermissionCache(workspaceId int, role string) error {
	return config.RemoveRedisKey("AccessControl:" + fmt.Sprint(workspaceId) + ":" + role)
}
