package models

import (
	"time"

	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

const (
	historyActionActive   = "*ACTIVE*"
	historyActionInactive = "*INACTIVE*"
	historyActionDelete   = "*DELETE*"
	historyActionRestore  = "*RESTORE*"
)

// History is a free-form audit row written next to sensitive mutations.
// Old/new snapshots are JSON blobs; either side may be empty.
type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	WorkspaceId   int       `gorm:"index" json:"workspace_id"`
	Action        string    `gorm:"size:30;not null" json:"action"`
	ReferenceId   int       `gorm:"index;not null" json:"reference_id"`
	ReferenceType string    `gorm:"size:60;not null" json:"reference_type"`
	OldObj        []byte    `gorm:"type:text" json:"old_obj"`
	NewObj        []byte    `gorm:"type:text" json:"new_obj"`
	Description   string    `gorm:"type:text" json:"description"`
	UserId        int       `json:"user_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// createHistory writes on the caller's handle so it joins whatever unit of
// work is open.
func createHistory(tx *gorm.DB, action string, refId int, refType string, oldObj []byte, newObj []byte, description string) error {
	record := History{
		Action:        action,
		ReferenceId:   refId,
		ReferenceType: refType,
		OldObj:        oldObj,
		NewObj:        newObj,
		Description:   description,
	}
	if ctx := tx.Statement.Context; ctx != nil {
		if wid, ok := utils.GetWorkspaceIdFromContext(ctx); ok {
			record.WorkspaceId = wid
		}
		if uid, ok := utils.GetUserIdFromContext(ctx); ok {
			record.UserId = uid
		}
	}
	return tx.Create(&record).Error
}
