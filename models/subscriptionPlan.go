package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
)

// SubscriptionPlan is a bundle of per-workspace limits. -1 means unlimited.
// Plans are globally scoped; exactly one row is the default.
type SubscriptionPlan struct {
	ID                int       `gorm:"primary_key" json:"id"`
	Name              string    `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	MaxMembers        int       `gorm:"not null;default:-1" json:"max_members"`
	MaxStorageMiB     int       `gorm:"not null;default:-1" json:"max_storage_mib"`
	MaxOrdersPerMonth int       `gorm:"not null;default:-1" json:"max_orders_per_month"`
	MaxFactories      int       `gorm:"not null;default:-1" json:"max_factories"`
	MaxMachines       int       `gorm:"not null;default:-1" json:"max_machines"`
	MaxProjects       int       `gorm:"not null;default:-1" json:"max_projects"`
	IsDefault         *bool     `gorm:"not null;default:false" json:"is_default"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LimitFor maps a usage counter to its plan ceiling.
func (p *SubscriptionPlan) LimitFor(counter UsageCounter) int {
	switch counter {
	case CounterMembers:
		return p.MaxMembers
	case CounterStorageMiB:
		return p.MaxStorageMiB
	case CounterOrders:
		return p.MaxOrdersPerMonth
	case CounterFactories:
		return p.MaxFactories
	case CounterMachines:
		return p.MaxMachines
	case CounterProjects:
		return p.MaxProjects
	}
	return -1
}

// GetSubscriptionPlan is a tenancy-crossing lookup: plans are shared rows.
func GetSubscriptionPlan(ctx context.Context, id int) (*SubscriptionPlan, error) {
	plan, err := utils.RetrieveRedis[SubscriptionPlan](id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		return plan, nil
	}

	plan, err = utils.FetchSingleModel[SubscriptionPlan](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[SubscriptionPlan](plan, id); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetDefaultSubscriptionPlan returns the plan new workspaces start on.
func GetDefaultSubscriptionPlan(ctx context.Context) (*SubscriptionPlan, error) {
	db := config.GetDB()
	var plan SubscriptionPlan
	if err := db.WithContext(ctx).Where("is_default = ?", true).First(&plan).Error; err != nil {
		return nil, ErrNotFound
	}
	return &plan, nil
}

// SeedDefaultSubscriptionPlan makes sure a default plan exists. Used by the
// seed tool and test bootstrap; no-op when one is already present.
func SeedDefaultSubscriptionPlan(ctx context.Context) (*SubscriptionPlan, error) {
	db := config.GetDB()
	var plan SubscriptionPlan
	err := db.WithContext(ctx).Where("is_default = ?", true).First(&plan).Error
	if err == nil {
		return &plan, nil
	}

	plan = SubscriptionPlan{
		Name:              "Starter",
		MaxMembers:        5,
		MaxStorageMiB:     1024,
		MaxOrdersPerMonth: 100,
		MaxFactories:      2,
		MaxMachines:       20,
		MaxProjects:       5,
		IsDefault:         utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}
