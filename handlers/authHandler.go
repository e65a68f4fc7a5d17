package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/gin-gonic/gin"
)

// Register creates a profile and its first workspace in one call. The
// caller signs in afterwards; no token is minted here.
func Register(c *gin.Context) {
	var input models.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	profile, workspace, err := models.Register(c.Request.Context(), &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile, "workspace": workspace})
}

func Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	info, err := models.Login(c.Request.Context(), &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type switchWorkspaceInput struct {
	WorkspaceId int `json:"workspace_id" binding:"required"`
}

// SwitchWorkspace reissues tokens scoped to another workspace the caller
// belongs to.
func SwitchWorkspace(c *gin.Context) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		middlewares.RenderProblem(c, models.ErrAuthentication)
		return
	}
	var input switchWorkspaceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	info, err := models.SwitchWorkspace(c.Request.Context(), userId, input.WorkspaceId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type forgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword always answers ok so the endpoint does not leak which
// emails exist. The reset token travels out of band.
func ForgotPassword(c *gin.Context) {
	var input forgotPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	if _, err := models.ForgotPassword(c.Request.Context(), input.Email); err != nil && err != models.ErrNotFound {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type resetPasswordInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func ResetPassword(c *gin.Context) {
	var input resetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	if err := models.ResetPassword(c.Request.Context(), input.Token, input.Password); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ValidateInvitation lets the signup page show workspace and role before
// the invitee commits to an account.
func ValidateInvitation(c *gin.Context) {
	invitation, err := models.GetInvitationByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

// AcceptInvitation turns a pending invitation into a membership for the
// authenticated caller.
func AcceptInvitation(c *gin.Context) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		middlewares.RenderProblem(c, models.ErrAuthentication)
		return
	}
	member, err := models.AcceptInvitation(c.Request.Context(), c.Param("token"), userId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}
