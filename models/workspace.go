package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

// Workspace is the tenant root. Every scoped table carries its id and the
// tenant guard plugin filters on it.
type Workspace struct {
	ID                 int                `gorm:"primary_key" json:"id"`
	Name               string             `gorm:"size:100;not null" json:"name" binding:"required"`
	Slug               string             `gorm:"size:100;not null;unique" json:"slug" binding:"required"`
	OwnerId            int                `gorm:"not null;index" json:"owner_id"`
	SubscriptionPlanId int                `gorm:"not null" json:"subscription_plan_id"`
	SubscriptionStatus SubscriptionStatus `gorm:"size:20;not null;default:trial" json:"subscription_status"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at"`

	CurrentMembersCount    int `gorm:"not null;default:0" json:"current_members_count"`
	CurrentStorageMiB      int `gorm:"not null;default:0" json:"current_storage_mib"`
	CurrentOrdersThisMonth int `gorm:"not null;default:0" json:"current_orders_this_month"`
	CurrentFactoriesCount  int `gorm:"not null;default:0" json:"current_factories_count"`
	CurrentMachinesCount   int `gorm:"not null;default:0" json:"current_machines_count"`
	CurrentProjectsCount   int `gorm:"not null;default:0" json:"current_projects_count"`

	// OrdersMonth is the month CurrentOrdersThisMonth covers. The counter is
	// reset when a new month starts, either lazily on the next order or by
	// the orders-month-reset tool.
	OrdersMonth time.Time `json:"orders_month"`

	Settings  WorkspaceSettings `gorm:"serializer:json" json:"settings"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// WorkspaceSettings is the typed option bag behind the settings JSON column.
// Version gates future shape changes.
type WorkspaceSettings struct {
	Version               int    `json:"version"`
	Timezone              string `json:"timezone,omitempty"`
	Currency              string `json:"currency,omitempty"`
	RequireBudgetApproval bool   `json:"require_budget_approval,omitempty"`
	LowStockThreshold     int    `json:"low_stock_threshold,omitempty"`
}

type NewWorkspace struct {
	Name               string            `json:"name" binding:"required"`
	Slug               string            `json:"slug"`
	SubscriptionPlanId int               `json:"subscription_plan_id"`
	Settings           WorkspaceSettings `json:"settings"`
}

type UpdateWorkspace struct {
	Name     string             `json:"name"`
	Settings *WorkspaceSettings `json:"settings"`
}

const trialDays = 30

// GetWorkspace is a tenancy-crossing lookup by primary key; callers must
// already have proven membership (the workspace middleware does).
func GetWorkspace(ctx context.Context, id int) (*Workspace, error) {
	ws, err := utils.FetchSingleModel[Workspace](ctx, id)
	if err != nil {
		return nil, ErrUnknownWorkspace
	}
	return ws, nil
}

// CreateWorkspace provisions a tenant in one unit of work:
// workspace row + owner member + default statuses, workflows, departments
// and system account tags. Either all of it commits or none of it.
func CreateWorkspace(ctx context.Context, ownerId int, input *NewWorkspace) (*Workspace, error) {
	if _, err := utils.FetchSingleModel[Profile](ctx, ownerId); err != nil {
		return nil, err
	}

	var workspace *Workspace
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		workspace, err = createWorkspaceInTx(tx, ownerId, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

// createWorkspaceInTx seeds the tenant inside the caller's transaction.
// Register runs it in the same unit of work that creates the owner
// profile, so a slug conflict rolls the profile back too.
func createWorkspaceInTx(tx *gorm.DB, ownerId int, input *NewWorkspace) (*Workspace, error) {
	slug := input.Slug
	if slug == "" {
		slug = utils.Slugify(input.Name)
	}
	if !utils.IsValidSlug(slug) {
		return nil, &DomainError{Code: "validation_error", Status: 422, Message: "invalid slug"}
	}

	planId := input.SubscriptionPlanId
	if planId == 0 {
		var plan SubscriptionPlan
		if err := tx.Where("is_default = ?", true).First(&plan).Error; err != nil {
			return nil, ErrNotFound
		}
		planId = plan.ID
	} else {
		var plan SubscriptionPlan
		if err := tx.First(&plan, planId).Error; err != nil {
			return nil, ErrNotFound
		}
	}

	trialEnd := time.Now().AddDate(0, 0, trialDays)
	settings := input.Settings
	if settings.Version == 0 {
		settings.Version = 1
	}

	workspace := Workspace{
		Name:                input.Name,
		Slug:                slug,
		OwnerId:             ownerId,
		SubscriptionPlanId:  planId,
		SubscriptionStatus:  SubscriptionStatusTrial,
		TrialEndsAt:         &trialEnd,
		CurrentMembersCount: 1,
		OrdersMonth:         utils.MonthStart(time.Now()),
		Settings:            settings,
	}

	if err := tx.Create(&workspace).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	member := WorkspaceMember{
		WorkspaceId: workspace.ID,
		ProfileId:   ownerId,
		Role:        MemberRoleOwner,
		Status:      MemberStatusActive,
		CreatedBy:   ownerId,
	}
	if err := tx.Create(&member).Error; err != nil {
		return nil, err
	}

	statuses, err := seedDefaultStatuses(tx, workspace.ID, ownerId)
	if err != nil {
		return nil, err
	}
	if err := seedDefaultWorkflows(tx, workspace.ID, statuses); err != nil {
		return nil, err
	}
	if err := seedDefaultDepartments(tx, workspace.ID, ownerId); err != nil {
		return nil, err
	}
	if err := seedDefaultAccountTags(tx, workspace.ID); err != nil {
		return nil, err
	}
	return &workspace, nil
}

func UpdateWorkspaceSettings(ctx context.Context, id int, input *UpdateWorkspace) (*Workspace, error) {
	workspace, err := GetWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		workspace.Name = input.Name
	}
	if input.Settings != nil {
		if input.Settings.Version == 0 {
			input.Settings.Version = workspace.Settings.Version
		}
		workspace.Settings = *input.Settings
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(workspace).Error; err != nil {
		return nil, err
	}
	return workspace, nil
}

// ChangeSubscriptionPlan is workspace administration: only the owner member
// may call it (enforced by the handler through IsWorkspaceAdminOp).
func ChangeSubscriptionPlan(ctx context.Context, workspaceId int, planId int) (*Workspace, error) {
	if _, err := GetSubscriptionPlan(ctx, planId); err != nil {
		return nil, err
	}
	workspace, err := GetWorkspace(ctx, workspaceId)
	if err != nil {
		return nil, err
	}
	workspace.SubscriptionPlanId = planId
	if workspace.SubscriptionStatus == SubscriptionStatusTrial {
		workspace.SubscriptionStatus = SubscriptionStatusActive
		workspace.TrialEndsAt = nil
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(workspace).Error; err != nil {
		return nil, err
	}
	return workspace, nil
}

/* plan limits */

// CheckPlanLimit loads the workspace row FOR UPDATE inside the caller's tx
// and rejects when the counter has hit the plan ceiling. The row stays
// locked until commit, so concurrent creates of the same kind serialize.
func CheckPlanLimit(tx *gorm.DB, workspaceId int, counter UsageCounter) (*Workspace, error) {
	var workspace Workspace
	if err := LockForUpdate(tx).
		First(&workspace, workspaceId).Error; err != nil {
		return nil, ErrUnknownWorkspace
	}

	// The orders counter rolls over at month boundaries.
	if counter == CounterOrders {
		thisMonth := utils.MonthStart(time.Now())
		if workspace.OrdersMonth.Before(thisMonth) {
			workspace.CurrentOrdersThisMonth = 0
			workspace.OrdersMonth = thisMonth
			if err := tx.Model(&workspace).
				UpdateColumns(map[string]interface{}{
					"current_orders_this_month": 0,
					"orders_month":              thisMonth,
				}).Error; err != nil {
				return nil, err
			}
		}
	}

	plan, err := GetSubscriptionPlan(tx.Statement.Context, workspace.SubscriptionPlanId)
	if err != nil {
		return nil, err
	}
	limit := plan.LimitFor(counter)
	if limit >= 0 && workspace.usage(counter) >= limit {
		return nil, ErrPlanLimitReached
	}
	return &workspace, nil
}

// AdjustUsage moves a usage counter by delta inside the caller's tx,
// floored at 0.
func AdjustUsage(tx *gorm.DB, workspaceId int, counter UsageCounter, delta int) error {
	var workspace Workspace
	if err := LockForUpdate(tx).
		First(&workspace, workspaceId).Error; err != nil {
		return ErrUnknownWorkspace
	}
	next := workspace.usage(counter) + delta
	if next < 0 {
		next = 0
	}
	return tx.Model(&workspace).UpdateColumn(string(counter), next).Error
}

func (w *Workspace) usage(counter UsageCounter) int {
	switch counter {
	case CounterMembers:
		return w.CurrentMembersCount
	case CounterStorageMiB:
		return w.CurrentStorageMiB
	case CounterOrders:
		return w.CurrentOrdersThisMonth
	case CounterFactories:
		return w.CurrentFactoriesCount
	case CounterMachines:
		return w.CurrentMachinesCount
	case CounterProjects:
		return w.CurrentProjectsCount
	}
	return 0
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
