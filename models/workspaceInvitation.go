package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkspaceInvitation is a token-gated offer of membership. Unique on
// (workspace, email); pending rows past expires_at are treated as expired
// even before the sweep flips their status.
type WorkspaceInvitation struct {
	ID          int              `gorm:"primary_key" json:"id"`
	WorkspaceId int              `gorm:"not null;uniqueIndex:idx_invitation_ws_email,priority:1" json:"workspace_id"`
	Email       string           `gorm:"size:255;not null;uniqueIndex:idx_invitation_ws_email,priority:2" json:"email"`
	Role        MemberRole       `gorm:"size:30;not null" json:"role"`
	Token       string           `gorm:"size:100;not null;uniqueIndex" json:"-"`
	Status      InvitationStatus `gorm:"size:20;not null;default:pending" json:"status"`
	InvitedBy   int              `gorm:"not null" json:"invited_by"`
	InvitedAt   time.Time        `gorm:"not null" json:"invited_at"`
	ExpiresAt   time.Time        `gorm:"not null;index" json:"expires_at"`
	AcceptedAt  *time.Time       `json:"accepted_at"`
}

type NewInvitation struct {
	Email string     `json:"email" binding:"required,email"`
	Role  MemberRole `json:"role" binding:"required"`
}

const invitationDays = 7

// mintInvitationToken returns a URL-safe random token. Two uuids give 256
// random bits; the column stays opaque text.
func mintInvitationToken() string {
	return uuid.NewString() + uuid.NewString()[:8]
}

func (inv *WorkspaceInvitation) expired(now time.Time) bool {
	return !now.Before(inv.ExpiresAt)
}

// InviteMember issues an invitation for (workspace, email). Rejects when an
// active member or a live pending invitation already exists. Re-inviting an
// email whose previous invitation lapsed replaces the old row.
func InviteMember(ctx context.Context, workspaceId int, inviterId int, input *NewInvitation) (*WorkspaceInvitation, error) {
	if !input.Role.Valid() || input.Role == MemberRoleOwner {
		return nil, &DomainError{Code: "validation_error", Status: 422, Message: "invalid role"}
	}

	// Already a member?
	if profile, err := GetProfileByEmail(ctx, input.Email); err == nil {
		if _, err := GetActiveMember(ctx, workspaceId, profile.ID); err == nil {
			return nil, ErrAlreadyMember
		}
	}

	now := time.Now()
	invitation := WorkspaceInvitation{
		WorkspaceId: workspaceId,
		Email:       input.Email,
		Role:        input.Role,
		Token:       mintInvitationToken(),
		Status:      InvitationStatusPending,
		InvitedBy:   inviterId,
		InvitedAt:   now,
		ExpiresAt:   now.AddDate(0, 0, invitationDays),
	}

	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		var existing WorkspaceInvitation
		err := tx.Where("workspace_id = ? AND email = ?", workspaceId, input.Email).
			First(&existing).Error
		if err == nil {
			if existing.Status == InvitationStatusPending && !existing.expired(now) {
				return ErrDuplicateInvitation
			}
			// Lapsed/cancelled/accepted rows give way to the fresh one to
			// keep the (workspace, email) uniqueness.
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		}

		if _, err := CheckPlanLimit(tx, workspaceId, CounterMembers); err != nil {
			return err
		}
		return tx.Create(&invitation).Error
	})
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// GetInvitationByToken resolves a token for the public validate endpoint.
// Token lookup crosses tenants: the acceptor has no workspace context yet.
func GetInvitationByToken(ctx context.Context, token string) (*WorkspaceInvitation, error) {
	db := config.GetDB()
	scopeless := utils.SetSkipTenantScopeInContext(ctx, true)
	var invitation WorkspaceInvitation
	if err := db.WithContext(scopeless).Where("token = ?", token).First(&invitation).Error; err != nil {
		return nil, ErrNotFound
	}
	return &invitation, nil
}

// AcceptInvitation redeems a pending, unexpired token: flips it accepted and
// creates the member in the same unit of work. The acceptor's profile email
// must match the invited email.
func AcceptInvitation(ctx context.Context, token string, acceptorId int) (*WorkspaceMember, error) {
	invitation, err := GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if invitation.Status != InvitationStatusPending || invitation.expired(now) {
		return nil, ErrInvitationExpired
	}

	profile, err := utils.FetchSingleModel[Profile](ctx, acceptorId)
	if err != nil {
		return nil, err
	}
	if profile.Email != invitation.Email {
		return nil, ErrForbidden
	}

	member := WorkspaceMember{
		WorkspaceId: invitation.WorkspaceId,
		ProfileId:   profile.ID,
		Role:        invitation.Role,
		Status:      MemberStatusActive,
		CreatedBy:   invitation.InvitedBy,
	}

	scopeless := utils.SetSkipTenantScopeInContext(ctx, true)
	err = config.RunInTransaction(scopeless, func(tx *gorm.DB) error {
		if _, err := CheckPlanLimit(tx, invitation.WorkspaceId, CounterMembers); err != nil {
			return err
		}
		res := tx.Model(&WorkspaceInvitation{}).
			Where("id = ? AND status = ?", invitation.ID, InvitationStatusPending).
			Updates(map[string]interface{}{"status": InvitationStatusAccepted, "accepted_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Raced with a concurrent accept or the sweep.
			return ErrInvitationExpired
		}
		if err := tx.Create(&member).Error; err != nil {
			if isDuplicateKeyError(err) {
				return ErrAlreadyMember
			}
			return err
		}
		return AdjustUsage(tx, invitation.WorkspaceId, CounterMembers, 1)
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// CancelInvitation flips a pending invitation to cancelled.
func CancelInvitation(ctx context.Context, workspaceId int, invitationId int) error {
	db := config.GetDB()
	res := db.WithContext(ctx).Model(&WorkspaceInvitation{}).
		Where("id = ? AND workspace_id = ? AND status = ?", invitationId, workspaceId, InvitationStatusPending).
		UpdateColumn("status", InvitationStatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func ListInvitations(ctx context.Context, workspaceId int) ([]*WorkspaceInvitation, error) {
	return utils.FetchAllModels[WorkspaceInvitation](ctx, workspaceId)
}

// ExpirePendingInvitations marks every lapsed pending invitation expired.
// Called by the sweep tool; safe to run concurrently.
func ExpirePendingInvitations(ctx context.Context, now time.Time) (int64, error) {
	db := config.GetDB()
	scopeless := utils.SetSkipTenantScopeInContext(ctx, true)
	res := db.WithContext(scopeless).Model(&WorkspaceInvitation{}).
		Where("status = ? AND expires_at <= ?", InvitationStatusPending, now).
		UpdateColumn("status", InvitationStatusExpired)
	return res.RowsAffected, res.Error
}
