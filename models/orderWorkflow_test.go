package models_test

import (
	"context"
	"testing"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/stretchr/testify/require"
)

func TestUpdateWorkflowRejectsRemovingOccupiedStatus(t *testing.T) {
	setupTestDB(t)
	ctx, profile, workspace := registerTenant(t, "planner@example.com")

	wf, err := models.GetWorkflowByType(ctx, workspace.ID, models.OrderTypeSTM)
	require.NoError(t, err)
	require.Len(t, wf.StatusSequence, 3)

	// park an order on the middle status
	order := &models.Order{
		WorkspaceId:     workspace.ID,
		TypeCode:        models.OrderTypeSTM,
		CurrentStatusId: wf.StatusSequence[1],
		CreatedBy:       profile.ID,
		IsDeleted:       utils.NewFalse(),
	}
	require.NoError(t, config.GetDB().WithContext(context.Background()).Create(order).Error)

	trimmed := &models.NewOrderWorkflow{
		TypeCode:       wf.TypeCode,
		StatusSequence: []int{wf.StatusSequence[0], wf.StatusSequence[2]},
	}
	_, err = models.UpdateWorkflow(ctx, workspace.ID, wf.ID, trimmed)
	require.ErrorIs(t, err, models.ErrWorkflowInUse)

	// the stored graph is untouched
	kept, err := models.GetWorkflowByType(ctx, workspace.ID, models.OrderTypeSTM)
	require.NoError(t, err)
	require.Equal(t, wf.StatusSequence, kept.StatusSequence)
}

func TestUpdateWorkflowAllowsRemovingUnoccupiedStatus(t *testing.T) {
	setupTestDB(t)
	ctx, _, workspace := registerTenant(t, "planner2@example.com")

	wf, err := models.GetWorkflowByType(ctx, workspace.ID, models.OrderTypeMTM)
	require.NoError(t, err)

	trimmed := &models.NewOrderWorkflow{
		TypeCode:       wf.TypeCode,
		StatusSequence: []int{wf.StatusSequence[0], wf.StatusSequence[2]},
	}
	updated, err := models.UpdateWorkflow(ctx, workspace.ID, wf.ID, trimmed)
	require.NoError(t, err)
	require.Equal(t, trimmed.StatusSequence, updated.StatusSequence)
}
