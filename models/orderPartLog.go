package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

// OrderPartLog records every approval-flag flip on an order line with a
// before/after snapshot of the line.
type OrderPartLog struct {
	ID          int       `gorm:"primary_key" json:"id"`
	WorkspaceId int       `gorm:"not null;index" json:"workspace_id"`
	OrderId     int       `gorm:"not null;index" json:"order_id"`
	OrderItemId int       `gorm:"not null;index" json:"order_item_id"`
	Field       string    `gorm:"size:50;not null" json:"field"`
	OldState    string    `gorm:"type:text" json:"old_state"`
	NewState    string    `gorm:"type:text" json:"new_state"`
	ChangedBy   int       `gorm:"not null" json:"changed_by"`
	ChangedAt   time.Time `gorm:"autoCreateTime" json:"changed_at"`
}

func createOrderPartLog(tx *gorm.DB, workspaceId int, field string, before *OrderItem, after *OrderItem, userId int) error {
	oldJSON, err := json.Marshal(before)
	if err != nil {
		return err
	}
	newJSON, err := json.Marshal(after)
	if err != nil {
		return err
	}
	log := OrderPartLog{
		WorkspaceId: workspaceId,
		OrderId:     after.OrderId,
		OrderItemId: after.ID,
		Field:       field,
		OldState:    string(oldJSON),
		NewState:    string(newJSON),
		ChangedBy:   userId,
	}
	return tx.Create(&log).Error
}

// approvalFields whitelists the flags FlipOrderItemApproval may touch.
var approvalFields = map[string]func(*OrderItem) **bool{
	"approved_pending_order":       func(i *OrderItem) **bool { return &i.ApprovedPendingOrder },
	"approved_office_order":        func(i *OrderItem) **bool { return &i.ApprovedOfficeOrder },
	"approved_budget":              func(i *OrderItem) **bool { return &i.ApprovedBudget },
	"approved_storage_withdrawal":  func(i *OrderItem) **bool { return &i.ApprovedStorageWithdrawal },
	"is_sample_sent_to_office":     func(i *OrderItem) **bool { return &i.IsSampleSentToOffice },
	"is_sample_received_by_office": func(i *OrderItem) **bool { return &i.IsSampleReceivedByOffice },
}

// FlipOrderItemApproval sets one approval flag on an order line and
// appends the audit log row in the same unit of work.
func FlipOrderItemApproval(ctx context.Context, workspaceId int, orderItemId int, field string, value bool, userId int) (*OrderItem, error) {
	accessor, ok := approvalFields[field]
	if !ok {
		return nil, newDomainError("validation_error", 422, "unknown approval field: "+field)
	}
	item, err := utils.FetchModel[OrderItem](ctx, workspaceId, orderItemId)
	if err != nil {
		return nil, ErrNotFound
	}

	before := *item
	*accessor(item) = &value
	item.UpdatedBy = userId

	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(item).
			UpdateColumns(map[string]interface{}{field: value, "updated_by": userId}).Error; err != nil {
			return err
		}
		return createOrderPartLog(tx, workspaceId, field, &before, item, userId)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func ListOrderPartLogs(ctx context.Context, workspaceId int, orderId int, params ListParams) ([]*OrderPartLog, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&OrderPartLog{}).
		Where("workspace_id = ? AND order_id = ?", workspaceId, orderId)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []*OrderPartLog
	if err := query.Order("id DESC").Offset(params.Skip).Limit(params.Limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
