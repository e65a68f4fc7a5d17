package models_test

import (
	"fmt"
	"testing"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/stretchr/testify/require"
)

func TestListReferenceReadsAreBounded(t *testing.T) {
	setupTestDB(t)
	ctx, _, workspace := registerTenant(t, "owner@example.com")

	tags := make([]*models.ItemTag, 0, utils.MaxFetchAll+5)
	for i := 0; i < utils.MaxFetchAll+5; i++ {
		tags = append(tags, &models.ItemTag{
			WorkspaceId: workspace.ID,
			Name:        fmt.Sprintf("Tag %d", i),
			TagCode:     fmt.Sprintf("tag-%d", i),
		})
	}
	require.NoError(t, config.GetDB().CreateInBatches(tags, 200).Error)

	listed, err := models.ListItemTags(ctx, workspace.ID)
	require.NoError(t, err)
	require.Len(t, listed, utils.MaxFetchAll)
}
