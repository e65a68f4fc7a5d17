package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

// Factory is the top of the location hierarchy:
// workspace, then factory, then section, then machine.
type Factory struct {
	ID          int        `gorm:"primary_key" json:"id"`
	WorkspaceId int        `gorm:"not null;index" json:"workspace_id"`
	Name        string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Address     string     `gorm:"type:text" json:"address"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedBy   int        `json:"created_by"`
	UpdatedBy   int        `json:"updated_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted   *bool      `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at"`
	DeletedBy   int        `json:"deleted_by"`
}

func (f Factory) GetWorkspaceId() int { return f.WorkspaceId }

type NewFactory struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// CreateFactory checks the plan ceiling and bumps the usage counter inside
// one unit of work.
func CreateFactory(ctx context.Context, workspaceId int, creatorId int, input *NewFactory) (*Factory, error) {
	factory := Factory{
		WorkspaceId: workspaceId,
		Name:        input.Name,
		Address:     input.Address,
		IsActive:    utils.NewTrue(),
		IsDeleted:   utils.NewFalse(),
		CreatedBy:   creatorId,
	}
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := CheckPlanLimit(tx, workspaceId, CounterFactories); err != nil {
			return err
		}
		if err := tx.Create(&factory).Error; err != nil {
			return err
		}
		return AdjustUsage(tx, workspaceId, CounterFactories, 1)
	})
	if err != nil {
		return nil, err
	}
	return &factory, nil
}

func DeleteFactory(ctx context.Context, workspaceId int, id int, deleterId int) error {
	factory, err := utils.FetchModel[Factory](ctx, workspaceId, id)
	if err != nil {
		return ErrNotFound
	}
	now := time.Now()
	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(factory).UpdateColumns(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": deleterId,
		}).Error; err != nil {
			return err
		}
		return AdjustUsage(tx, workspaceId, CounterFactories, -1)
	})
}

// FactorySection subdivides a factory floor.
type FactorySection struct {
	ID          int       `gorm:"primary_key" json:"id"`
	WorkspaceId int       `gorm:"not null;index" json:"workspace_id"`
	FactoryId   int       `gorm:"not null;index" json:"factory_id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s FactorySection) GetWorkspaceId() int { return s.WorkspaceId }

type NewFactorySection struct {
	FactoryId int    `json:"factory_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

func CreateFactorySection(ctx context.Context, workspaceId int, creatorId int, input *NewFactorySection) (*FactorySection, error) {
	if err := utils.ValidateResourceId[Factory](ctx, workspaceId, input.FactoryId); err != nil {
		return nil, ErrNotFound
	}
	section := FactorySection{
		WorkspaceId: workspaceId,
		FactoryId:   input.FactoryId,
		Name:        input.Name,
		CreatedBy:   creatorId,
	}
	if err := createScoped(ctx, &section); err != nil {
		return nil, err
	}
	return &section, nil
}
