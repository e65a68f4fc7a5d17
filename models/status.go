package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

// Status is one named step usable in order workflows.
type Status struct {
	ID          int       `gorm:"primary_key" json:"id"`
	WorkspaceId int       `gorm:"not null;index" json:"workspace_id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Comment     string    `gorm:"type:text" json:"comment"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStatus struct {
	Name    string `json:"name" binding:"required"`
	Comment string `json:"comment"`
}

// DefaultStatusNames seeds every new workspace, in workflow order.
var DefaultStatusNames = []string{
	"Pending",
	"Office Approved",
	"Budget Approved",
	"Quotation Requested",
	"Quotation Received",
	"Purchased",
	"Received",
	"Completed",
	"Cancelled",
}

// seedDefaultStatuses runs inside workspace creation's tx and returns the
// created rows keyed by name.
func seedDefaultStatuses(tx *gorm.DB, workspaceId int, creatorId int) (map[string]*Status, error) {
	byName := make(map[string]*Status, len(DefaultStatusNames))
	for _, name := range DefaultStatusNames {
		status := &Status{
			WorkspaceId: workspaceId,
			Name:        name,
			CreatedBy:   creatorId,
		}
		if err := tx.Create(status).Error; err != nil {
			return nil, err
		}
		byName[name] = status
	}
	return byName, nil
}

func ListStatuses(ctx context.Context, workspaceId int) ([]*Status, error) {
	return utils.FetchAllModels[Status](ctx, workspaceId)
}

func CreateStatus(ctx context.Context, workspaceId int, creatorId int, input *NewStatus) (*Status, error) {
	if err := utils.ValidateUnique[Status](ctx, workspaceId, "name", input.Name, 0); err != nil {
		return nil, ErrConflict
	}
	status := Status{
		WorkspaceId: workspaceId,
		Name:        input.Name,
		Comment:     input.Comment,
		CreatedBy:   creatorId,
	}
	if err := createScoped(ctx, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
