package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

type Project struct {
	ID          int        `gorm:"primary_key" json:"id"`
	WorkspaceId int        `gorm:"not null;index" json:"workspace_id"`
	FactoryId   int        `gorm:"index" json:"factory_id"`
	Name        string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string     `gorm:"type:text" json:"description"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedBy   int        `json:"created_by"`
	UpdatedBy   int        `json:"updated_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted   *bool      `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at"`
	DeletedBy   int        `json:"deleted_by"`
}

func (p Project) GetWorkspaceId() int { return p.WorkspaceId }

// ProjectComponent is a location key for the component ledger.
type ProjectComponent struct {
	ID          int       `gorm:"primary_key" json:"id"`
	WorkspaceId int       `gorm:"not null;index" json:"workspace_id"`
	ProjectId   int       `gorm:"not null;index" json:"project_id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c ProjectComponent) GetWorkspaceId() int { return c.WorkspaceId }

type NewProject struct {
	FactoryId   int    `json:"factory_id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type NewProjectComponent struct {
	ProjectId   int    `json:"project_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func CreateProject(ctx context.Context, workspaceId int, creatorId int, input *NewProject) (*Project, error) {
	if input.FactoryId != 0 {
		if err := utils.ValidateResourceId[Factory](ctx, workspaceId, input.FactoryId); err != nil {
			return nil, ErrNotFound
		}
	}
	project := Project{
		WorkspaceId: workspaceId,
		FactoryId:   input.FactoryId,
		Name:        input.Name,
		Description: input.Description,
		IsActive:    utils.NewTrue(),
		IsDeleted:   utils.NewFalse(),
		CreatedBy:   creatorId,
	}
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := CheckPlanLimit(tx, workspaceId, CounterProjects); err != nil {
			return err
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return AdjustUsage(tx, workspaceId, CounterProjects, 1)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func DeleteProject(ctx context.Context, workspaceId int, id int, deleterId int) error {
	project, err := utils.FetchModel[Project](ctx, workspaceId, id)
	if err != nil {
		return ErrNotFound
	}
	now := time.Now()
	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(project).UpdateColumns(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": deleterId,
		}).Error; err != nil {
			return err
		}
		return AdjustUsage(tx, workspaceId, CounterProjects, -1)
	})
}

func CreateProjectComponent(ctx context.Context, workspaceId int, creatorId int, input *NewProjectComponent) (*ProjectComponent, error) {
	if err := utils.ValidateResourceId[Project](ctx, workspaceId, input.ProjectId); err != nil {
		return nil, ErrNotFound
	}
	component := ProjectComponent{
		WorkspaceId: workspaceId,
		ProjectId:   input.ProjectId,
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   creatorId,
	}
	if err := createScoped(ctx, &component); err != nil {
		return nil, err
	}
	return &component, nil
}

func ListProjectComponents(ctx context.Context, workspaceId int, projectId int, params ListParams) ([]*ProjectComponent, int64, error) {
	params.Clamp(MaxReferenceListLimit)
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&ProjectComponent{}).
		Where("workspace_id = ? AND project_id = ?", workspaceId, projectId)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var components []*ProjectComponent
	if err := query.Order("id").Offset(params.Skip).Limit(params.Limit).Find(&components).Error; err != nil {
		return nil, 0, err
	}
	return components, total, nil
}
