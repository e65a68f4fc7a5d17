package models

import (
	"context"
	"slices"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

// OrderWorkflow defines the forward status path and the allowed backward
// edges for one order type. StatusSequence and AllowedReverts are JSON
// columns of status ids.
type OrderWorkflow struct {
	ID             int           `gorm:"primary_key" json:"id"`
	WorkspaceId    int           `gorm:"not null;uniqueIndex:idx_workflow_ws_type,priority:1" json:"workspace_id"`
	TypeCode       OrderTypeCode `gorm:"size:10;not null;uniqueIndex:idx_workflow_ws_type,priority:2" json:"type_code"`
	StatusSequence []int         `gorm:"serializer:json;type:text" json:"status_sequence"`
	AllowedReverts map[int][]int `gorm:"serializer:json;type:text" json:"allowed_reverts"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrderWorkflow struct {
	TypeCode       OrderTypeCode `json:"type_code" binding:"required"`
	StatusSequence []int         `json:"status_sequence" binding:"required,min=2"`
	AllowedReverts map[int][]int `json:"allowed_reverts"`
}

// validateGraph enforces: every revert source is in the sequence, and
// allowed_reverts[s] is a subset of the sequence excluding s itself.
func (input *NewOrderWorkflow) validateGraph() error {
	bad := &DomainError{Code: "validation_error", Status: 422, Message: "invalid workflow graph"}
	seen := make(map[int]bool, len(input.StatusSequence))
	for _, id := range input.StatusSequence {
		if id <= 0 || seen[id] {
			return bad
		}
		seen[id] = true
	}
	for from, targets := range input.AllowedReverts {
		if !seen[from] {
			return bad
		}
		for _, to := range targets {
			if to == from || !seen[to] {
				return bad
			}
		}
	}
	return nil
}

// InitialStatus is where new orders of this type start.
func (w *OrderWorkflow) InitialStatus() int {
	if len(w.StatusSequence) == 0 {
		return 0
	}
	return w.StatusSequence[0]
}

// NextStatus returns the forward successor of current, or 0 at the end.
func (w *OrderWorkflow) NextStatus(current int) int {
	i := slices.Index(w.StatusSequence, current)
	if i < 0 || i+1 >= len(w.StatusSequence) {
		return 0
	}
	return w.StatusSequence[i+1]
}

// CanRevert reports whether moving from current back to target is an allowed edge.
func (w *OrderWorkflow) CanRevert(current int, target int) bool {
	return slices.Contains(w.AllowedReverts[current], target)
}

// Contains reports whether a status id participates in the workflow.
func (w *OrderWorkflow) Contains(statusId int) bool {
	return slices.Contains(w.StatusSequence, statusId)
}

// seedDefaultWorkflows wires the four built-in order types over the default
// statuses. Purchase flows run the full approval chain; transfer flows are
// short. Reverts default to one step back per non-initial status.
func seedDefaultWorkflows(tx *gorm.DB, workspaceId int, statuses map[string]*Status) error {
	purchasePath := []string{
		"Pending", "Office Approved", "Budget Approved", "Quotation Requested",
		"Quotation Received", "Purchased", "Received", "Completed",
	}
	transferPath := []string{"Pending", "Office Approved", "Completed"}

	paths := map[OrderTypeCode][]string{
		OrderTypePFM: purchasePath,
		OrderTypePFS: purchasePath,
		OrderTypeSTM: transferPath,
		OrderTypeMTM: transferPath,
	}

	for typeCode, names := range paths {
		sequence := make([]int, 0, len(names))
		for _, name := range names {
			sequence = append(sequence, statuses[name].ID)
		}
		reverts := make(map[int][]int, len(sequence)-1)
		for i := 1; i < len(sequence); i++ {
			reverts[sequence[i]] = []int{sequence[i-1]}
		}

		workflow := OrderWorkflow{
			WorkspaceId:    workspaceId,
			TypeCode:       typeCode,
			StatusSequence: sequence,
			AllowedReverts: reverts,
		}
		if err := tx.Create(&workflow).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetWorkflowByType loads the workflow governing an order type.
func GetWorkflowByType(ctx context.Context, workspaceId int, typeCode OrderTypeCode) (*OrderWorkflow, error) {
	db := config.GetDB()
	var workflow OrderWorkflow
	err := db.WithContext(ctx).
		Where("workspace_id = ? AND type_code = ?", workspaceId, typeCode).
		First(&workflow).Error
	if err != nil {
		return nil, ErrNotFound
	}
	return &workflow, nil
}

func ListWorkflows(ctx context.Context, workspaceId int) ([]*OrderWorkflow, error) {
	return utils.FetchAllModels[OrderWorkflow](ctx, workspaceId)
}

// UpdateWorkflow replaces the graph after validating it against the
// workspace's statuses.
func UpdateWorkflow(ctx context.Context, workspaceId int, id int, input *NewOrderWorkflow) (*OrderWorkflow, error) {
	if err := input.validateGraph(); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourcesId[Status](ctx, workspaceId, input.StatusSequence); err != nil {
		return nil, &DomainError{Code: "validation_error", Status: 422, Message: "unknown status in sequence"}
	}

	workflow, err := utils.FetchModel[OrderWorkflow](ctx, workspaceId, id)
	if err != nil {
		return nil, ErrNotFound
	}

	db := config.GetDB()

	// a status cannot be removed while a live order sits on it, the
	// order would have no next step left on the graph
	if removed := removedStatuses(workflow.StatusSequence, input.StatusSequence); len(removed) > 0 {
		var stranded int64
		err := db.WithContext(ctx).Model(&Order{}).
			Where("workspace_id = ? AND type_code = ? AND current_status_id IN ? AND is_deleted = ?",
				workspaceId, workflow.TypeCode, removed, false).
			Count(&stranded).Error
		if err != nil {
			return nil, err
		}
		if stranded > 0 {
			return nil, ErrWorkflowInUse
		}
	}

	workflow.StatusSequence = input.StatusSequence
	workflow.AllowedReverts = input.AllowedReverts
	if err := db.WithContext(ctx).Save(workflow).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisInstance[OrderWorkflow](workflow.ID); err != nil {
		return nil, err
	}
	return workflow, nil
}

func removedStatuses(old []int, updated []int) []int {
	keep := make(map[int]bool, len(updated))
	for _, id := range updated {
		keep[id] = true
	}
	var removed []int
	for _, id := range old {
		if !keep[id] {
			removed = append(removed, id)
		}
	}
	return removed
}
