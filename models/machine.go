package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

type Machine struct {
	ID               int        `gorm:"primary_key" json:"id"`
	WorkspaceId      int        `gorm:"not null;index" json:"workspace_id"`
	FactoryId        int        `gorm:"not null;index" json:"factory_id"`
	FactorySectionId int        `gorm:"index" json:"factory_section_id"`
	Name             string     `gorm:"size:100;not null" json:"name" binding:"required"`
	SerialNumber     string     `gorm:"size:100" json:"serial_number"`
	IsRunning        *bool      `gorm:"not null;default:false" json:"is_running"`
	CreatedBy        int        `json:"created_by"`
	UpdatedBy        int        `json:"updated_by"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted        *bool      `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt        *time.Time `json:"deleted_at"`
	DeletedBy        int        `json:"deleted_by"`
}

func (m Machine) GetWorkspaceId() int { return m.WorkspaceId }

// MachineEvent mirrors every is_running flip plus repair/replace markers.
type MachineEvent struct {
	ID          int              `gorm:"primary_key" json:"id"`
	WorkspaceId int              `gorm:"not null;index" json:"workspace_id"`
	MachineId   int              `gorm:"not null;index" json:"machine_id"`
	EventType   MachineEventType `gorm:"size:20;not null" json:"event_type"`
	InitiatedBy int              `gorm:"not null" json:"initiated_by"`
	OccurredAt  time.Time        `gorm:"not null" json:"occurred_at"`
}

type NewMachine struct {
	FactoryId        int    `json:"factory_id" binding:"required"`
	FactorySectionId int    `json:"factory_section_id"`
	Name             string `json:"name" binding:"required"`
	SerialNumber     string `json:"serial_number"`
}

func CreateMachine(ctx context.Context, workspaceId int, creatorId int, input *NewMachine) (*Machine, error) {
	if err := utils.ValidateResourceId[Factory](ctx, workspaceId, input.FactoryId); err != nil {
		return nil, ErrNotFound
	}
	if input.FactorySectionId != 0 {
		if err := utils.ValidateResourceId[FactorySection](ctx, workspaceId, input.FactorySectionId); err != nil {
			return nil, ErrNotFound
		}
	}

	machine := Machine{
		WorkspaceId:      workspaceId,
		FactoryId:        input.FactoryId,
		FactorySectionId: input.FactorySectionId,
		Name:             input.Name,
		SerialNumber:     input.SerialNumber,
		IsRunning:        utils.NewFalse(),
		IsDeleted:        utils.NewFalse(),
		CreatedBy:        creatorId,
	}
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := CheckPlanLimit(tx, workspaceId, CounterMachines); err != nil {
			return err
		}
		if err := tx.Create(&machine).Error; err != nil {
			return err
		}
		return AdjustUsage(tx, workspaceId, CounterMachines, 1)
	})
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

// RecordMachineEvent appends the audit entry and keeps is_running in step
// for ON/OFF events.
func RecordMachineEvent(ctx context.Context, workspaceId int, machineId int, userId int, eventType MachineEventType) (*MachineEvent, error) {
	machine, err := utils.FetchModel[Machine](ctx, workspaceId, machineId)
	if err != nil {
		return nil, ErrNotFound
	}

	event := MachineEvent{
		WorkspaceId: workspaceId,
		MachineId:   machine.ID,
		EventType:   eventType,
		InitiatedBy: userId,
		OccurredAt:  time.Now(),
	}
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		switch eventType {
		case MachineEventOn:
			return tx.Model(machine).UpdateColumn("is_running", true).Error
		case MachineEventOff, MachineEventRepairing, MachineEventReplacing:
			return tx.Model(machine).UpdateColumn("is_running", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func ListMachineEvents(ctx context.Context, workspaceId int, machineId int, params ListParams) ([]*MachineEvent, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&MachineEvent{}).
		Where("workspace_id = ? AND machine_id = ?", workspaceId, machineId)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var events []*MachineEvent
	if err := query.Order("occurred_at DESC").Offset(params.Skip).Limit(params.Limit).Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func DeleteMachine(ctx context.Context, workspaceId int, id int, deleterId int) error {
	machine, err := utils.FetchModel[Machine](ctx, workspaceId, id)
	if err != nil {
		return ErrNotFound
	}
	now := time.Now()
	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(machine).UpdateColumns(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": deleterId,
		}).Error; err != nil {
			return err
		}
		return AdjustUsage(tx, workspaceId, CounterMachines, -1)
	})
}
