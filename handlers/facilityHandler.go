package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/gin-gonic/gin"
)

/* factories */

func ListFactories(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	params := listParams(c)
	factories, total, err := models.ListResource[models.Factory](c.Request.Context(), params, models.MaxReferenceListLimit, true)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, factories, total, params)
}

func CreateFactory(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewFactory
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	factory, err := models.CreateFactory(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, factory)
}

func DeleteFactory(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.DeleteFactory(c.Request.Context(), workspaceId, pathId(c, "id"), userId); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func ListFactorySections(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	params := listParams(c)
	sections, total, err := models.ListResource[models.FactorySection](c.Request.Context(), params, models.MaxReferenceListLimit, false)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, sections, total, params)
}

func CreateFactorySection(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewFactorySection
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	section, err := models.CreateFactorySection(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

/* machines */

func ListMachines(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	params := listParams(c)
	machines, total, err := models.ListResource[models.Machine](c.Request.Context(), params, models.MaxReferenceListLimit, true)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, machines, total, params)
}

func GetMachine(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	machine, err := models.GetResource[models.Machine](c.Request.Context(), pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

func CreateMachine(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewMachine
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	machine, err := models.CreateMachine(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, machine)
}

func DeleteMachine(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.DeleteMachine(c.Request.Context(), workspaceId, pathId(c, "id"), userId); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type machineEventInput struct {
	EventType models.MachineEventType `json:"event_type" binding:"required"`
}

// RecordMachineEvent logs an ON/OFF/REPAIRING/REPLACING event and keeps
// the machine's is_running flag in step.
func RecordMachineEvent(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input machineEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	event, err := models.RecordMachineEvent(c.Request.Context(), workspaceId, pathId(c, "id"), userId, input.EventType)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func ListMachineEvents(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	params := listParams(c)
	events, total, err := models.ListMachineEvents(c.Request.Context(), workspaceId, pathId(c, "id"), params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, events, total, params)
}

/* projects */

func ListProjects(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	params := listParams(c)
	projects, total, err := models.ListResource[models.Project](c.Request.Context(), params, models.MaxReferenceListLimit, true)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, projects, total, params)
}

func CreateProject(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewProject
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	project, err := models.CreateProject(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func DeleteProject(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.DeleteProject(c.Request.Context(), workspaceId, pathId(c, "id"), userId); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func CreateProjectComponent(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewProjectComponent
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	component, err := models.CreateProjectComponent(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, component)
}

func ListProjectComponents(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	params := listParams(c)
	components, total, err := models.ListProjectComponents(c.Request.Context(), workspaceId, pathId(c, "id"), params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, components, total, params)
}
