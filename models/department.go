package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

type Department struct {
	ID          int       `gorm:"primary_key" json:"id"`
	WorkspaceId int       `gorm:"not null;index" json:"workspace_id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d Department) GetWorkspaceId() int { return d.WorkspaceId }

type NewDepartment struct {
	Name string `json:"name" binding:"required"`
}

var DefaultDepartmentNames = []string{
	"Production",
	"Maintenance",
	"Quality Control",
	"Warehouse",
	"Administration",
}

func seedDefaultDepartments(tx *gorm.DB, workspaceId int, creatorId int) error {
	for _, name := range DefaultDepartmentNames {
		dept := Department{
			WorkspaceId: workspaceId,
			Name:        name,
			IsActive:    utils.NewTrue(),
			CreatedBy:   creatorId,
		}
		if err := tx.Create(&dept).Error; err != nil {
			return err
		}
	}
	return nil
}

func ListDepartments(ctx context.Context, workspaceId int) ([]*Department, error) {
	return utils.FetchAllModels[Department](ctx, workspaceId)
}

func CreateDepartment(ctx context.Context, workspaceId int, creatorId int, input *NewDepartment) (*Department, error) {
	if err := utils.ValidateUnique[Department](ctx, workspaceId, "name", input.Name, 0); err != nil {
		return nil, ErrConflict
	}
	dept := Department{
		WorkspaceId: workspaceId,
		Name:        input.Name,
		IsActive:    utils.NewTrue(),
		CreatedBy:   creatorId,
	}
	if err := createScoped(ctx, &dept); err != nil {
		return nil, err
	}
	return &dept, nil
}
