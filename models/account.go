package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
)

// Account is an external party the workspace pays or bills: suppliers,
// vendors, clients, utilities, payroll.
type Account struct {
	ID            int        `gorm:"primary_key" json:"id"`
	WorkspaceId   int        `gorm:"not null;index" json:"workspace_id"`
	Name          string     `gorm:"size:100;not null" json:"name" binding:"required"`
	ContactPerson string     `gorm:"size:100" json:"contact_person"`
	Email         string     `gorm:"size:100" json:"email"`
	Phone         string     `gorm:"size:30" json:"phone"`
	Address       string     `gorm:"type:text" json:"address"`
	IsActive      *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedBy     int        `json:"created_by"`
	UpdatedBy     int        `json:"updated_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted     *bool      `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt     *time.Time `json:"deleted_at"`
	DeletedBy     int        `json:"deleted_by"`
}

func (a Account) GetWorkspaceId() int { return a.WorkspaceId }

type NewAccount struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	TagIds        []int  `json:"tag_ids"`
}

func CreateAccount(ctx context.Context, workspaceId int, creatorId int, input *NewAccount) (*Account, error) {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, newDomainError("validation_error", 422, "invalid email address")
	}
	if len(input.TagIds) > 0 {
		if err := utils.ValidateResourcesId[AccountTag](ctx, workspaceId, utils.UniqueSlice(input.TagIds)); err != nil {
			return nil, ErrNotFound
		}
	}
	account := Account{
		WorkspaceId:   workspaceId,
		Name:          input.Name,
		ContactPerson: input.ContactPerson,
		Email:         input.Email,
		Phone:         input.Phone,
		Address:       input.Address,
		IsActive:      utils.NewTrue(),
		IsDeleted:     utils.NewFalse(),
		CreatedBy:     creatorId,
	}
	if err := createScoped(ctx, &account); err != nil {
		return nil, err
	}
	for _, tagId := range utils.UniqueSlice(input.TagIds) {
		if err := AssignAccountTag(ctx, workspaceId, tagId, account.ID); err != nil {
			return nil, err
		}
	}
	return &account, nil
}

func UpdateAccountById(ctx context.Context, workspaceId int, id int, updaterId int, input *NewAccount) (*Account, error) {
	account, err := utils.FetchModel[Account](ctx, workspaceId, id)
	if err != nil {
		return nil, ErrNotFound
	}
	account.Name = input.Name
	account.ContactPerson = input.ContactPerson
	account.Email = input.Email
	account.Phone = input.Phone
	account.Address = input.Address
	account.UpdatedBy = updaterId
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(account).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisInstance[Account](id); err != nil {
		return nil, err
	}
	return account, nil
}

func ListAccounts(ctx context.Context, params ListParams) ([]*Account, int64, error) {
	return ListResource[Account](ctx, params, MaxListLimit, true)
}
