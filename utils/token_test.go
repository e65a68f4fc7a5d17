package utils_test

import (
	"testing"

	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/stretchr/testify/require"
)

func TestJwtRoundTrip(t *testing.T) {
	access, refresh, err := utils.JwtGenerate(42, 7)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	require.NotEqual(t, access, refresh)

	claims, err := utils.JwtValidate(access)
	require.NoError(t, err)
	require.Equal(t, 42, claims.UserId)
	require.Equal(t, 7, claims.WorkspaceId)
	require.Equal(t, utils.TokenKindAccess, claims.Kind)

	claims, err = utils.JwtValidate(refresh)
	require.NoError(t, err)
	require.Equal(t, utils.TokenKindRefresh, claims.Kind)
}

func TestJwtValidateRejectsGarbage(t *testing.T) {
	_, err := utils.JwtValidate("not-a-token")
	require.Error(t, err)

	_, err = utils.JwtValidate("")
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := utils.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.NoError(t, utils.ComparePassword(string(hashed), "hunter2hunter2"))
	require.Error(t, utils.ComparePassword(string(hashed), "wrong"))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "shwe-factory-2", utils.Slugify("  Shwe Factory #2 "))
	require.True(t, utils.IsValidSlug("shwe-factory-2"))
	require.False(t, utils.IsValidSlug("UPPER CASE"))
}
