package utils

import (
	"context"

	"bitbucket.org/fabworks/mfg_backend/appctx"
)

var (
	ContextKeyToken       = appctx.ContextKeyToken
	ContextKeyWorkspaceId = appctx.ContextKeyWorkspaceId
	ContextKeyUserId      = appctx.ContextKeyUserId
	ContextKeyUserName    = appctx.ContextKeyUserName
	ContextKeyUserEmail   = appctx.ContextKeyUserEmail
	ContextKeyMemberRole  = appctx.ContextKeyMemberRole
	ContextKeyRequestId   = appctx.ContextKeyRequestId

	ContextKeyIsAdmin         = appctx.ContextKeyIsAdmin
	ContextKeySkipTenantScope = appctx.ContextKeySkipTenantScope
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetWorkspaceIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyWorkspaceId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserEmail)
}

func GetMemberRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyMemberRole)
}

func GetRequestIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRequestId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetWorkspaceIdInContext(ctx context.Context, workspaceId int) context.Context {
	return appctx.Set(ctx, ContextKeyWorkspaceId, workspaceId)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetUserEmailInContext(ctx context.Context, email string) context.Context {
	return appctx.Set(ctx, ContextKeyUserEmail, email)
}

func SetMemberRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyMemberRole, role)
}

func SetRequestIdInContext(ctx context.Context, requestId string) context.Context {
	return appctx.Set(ctx, ContextKeyRequestId, requestId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}

func GetSkipTenantScopeFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeySkipTenantScope)
}

func SetSkipTenantScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipTenantScope, skip)
}
