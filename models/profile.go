package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is a global user identity. Workspace access comes only through
// WorkspaceMember rows.
type Profile struct {
	ID          int        `gorm:"primary_key" json:"id"`
	Name        string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Email       string     `gorm:"size:255;not null;unique" json:"email" binding:"required"`
	Position    string     `gorm:"size:100" json:"position"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	DefaultRole MemberRole `gorm:"size:30;default:ground-team" json:"default_role"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type RegisterInput struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	Position      string `json:"position"`
	WorkspaceName string `json:"workspace_name" binding:"required"`
	WorkspaceSlug string `json:"workspace_slug"`
}

type LoginInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	WorkspaceId int    `json:"workspace_id"`
}

type LoginInfo struct {
	Token         string     `json:"token"`
	RefreshToken  string     `json:"refresh_token"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	WorkspaceId   int        `json:"workspace_id"`
	WorkspaceName string     `json:"workspace_name"`
	Role          MemberRole `json:"role"`
}

// GetProfileByEmail is a tenancy-crossing lookup used by login and
// invitation flows.
func GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	db := config.GetDB()
	var profile Profile
	if err := db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &profile, nil
}

// Register creates the profile and its first workspace in one unit of
// work. A failure anywhere, a taken slug included, leaves no profile
// behind so the registration can simply be retried.
func Register(ctx context.Context, input *RegisterInput) (*Profile, *Workspace, error) {
	if _, err := GetProfileByEmail(ctx, input.Email); err == nil {
		return nil, nil, &DomainError{Code: "validation_error", Status: 422, Message: "email already registered"}
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	profile := Profile{
		Name:        input.Name,
		Email:       input.Email,
		Position:    input.Position,
		Password:    string(hashed),
		DefaultRole: MemberRoleOwner,
		IsActive:    utils.NewTrue(),
	}
	var workspace *Workspace
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		var err error
		workspace, err = createWorkspaceInTx(tx, profile.ID, &NewWorkspace{
			Name: input.WorkspaceName,
			Slug: input.WorkspaceSlug,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &profile, workspace, nil
}

// Login authenticates and binds the session to a workspace: the requested
// one when given, otherwise the first active membership.
func Login(ctx context.Context, input *LoginInput) (*LoginInfo, error) {
	profile, err := GetProfileByEmail(ctx, input.Email)
	if err != nil {
		return nil, ErrAuthentication
	}
	if profile.IsActive != nil && !*profile.IsActive {
		return nil, ErrAuthentication
	}
	if err := utils.ComparePassword(profile.Password, input.Password); err != nil {
		return nil, ErrAuthentication
	}

	workspaceId := input.WorkspaceId
	if workspaceId == 0 {
		workspaces, err := ListWorkspacesForProfile(ctx, profile.ID)
		if err != nil || len(workspaces) == 0 {
			return nil, ErrNotAMember
		}
		workspaceId = workspaces[0].ID
	}
	return buildLoginInfo(ctx, profile, workspaceId)
}

// SwitchWorkspace re-issues tokens bound to another workspace the user is an
// active member of.
func SwitchWorkspace(ctx context.Context, profileId int, workspaceId int) (*LoginInfo, error) {
	profile, err := utils.FetchSingleModel[Profile](ctx, profileId)
	if err != nil {
		return nil, ErrAuthentication
	}
	return buildLoginInfo(ctx, profile, workspaceId)
}

func buildLoginInfo(ctx context.Context, profile *Profile, workspaceId int) (*LoginInfo, error) {
	workspace, err := GetWorkspace(ctx, workspaceId)
	if err != nil {
		return nil, err
	}
	if workspace.SubscriptionStatus == SubscriptionStatusSuspended {
		return nil, ErrWorkspaceSuspended
	}
	member, err := GetActiveMember(ctx, workspaceId, profile.ID)
	if err != nil {
		return nil, err
	}

	access, refresh, err := utils.JwtGenerate(profile.ID, workspaceId)
	if err != nil {
		return nil, err
	}
	return &LoginInfo{
		Token:         access,
		RefreshToken:  refresh,
		Name:          profile.Name,
		Email:         profile.Email,
		WorkspaceId:   workspaceId,
		WorkspaceName: workspace.Name,
		Role:          member.Role,
	}, nil
}

/* password reset */

const resetTokenLifespan = time.Hour

// ForgotPassword mints a one-time reset token kept in redis. The token is
// handed to the mailer by the caller; it is never written to the database.
func ForgotPassword(ctx context.Context, email string) (string, error) {
	profile, err := GetProfileByEmail(ctx, email)
	if err != nil {
		// Do not disclose whether the email exists.
		return "", nil
	}
	token := uuid.NewString()
	if err := config.SetRedisObject("PasswordReset:"+token, profile.ID, resetTokenLifespan); err != nil {
		return "", err
	}
	return token, nil
}

func ResetPassword(ctx context.Context, token string, newPassword string) error {
	var profileId int
	exists, err := config.GetRedisObject("PasswordReset:"+token, &profileId)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAuthentication
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", profileId).
		UpdateColumn("password", string(hashed)).Error; err != nil {
		return err
	}
	return config.RemoveRedisKey("PasswordReset:" + token)
}

func (p *Profile) RedisKey() string {
	return fmt.Sprintf("Profile:%d", p.ID)
}
