package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func renderToProblem(t *testing.T, err error) (int, middlewares.Problem) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/items/42", nil)

	middlewares.RenderProblem(c, err)

	var problem middlewares.Problem
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &problem))
	return recorder.Code, problem
}

func TestRenderProblemMasksCrossTenantAccess(t *testing.T) {
	status, problem := renderToProblem(t, models.ErrCrossTenantAccess)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_found", problem.Title)
	require.Equal(t, models.ErrNotFound.Message, problem.Detail)
}

func TestRenderProblemKeepsDomainCodes(t *testing.T) {
	status, problem := renderToProblem(t, models.ErrInsufficientStock)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "insufficient_stock", problem.Title)
}
