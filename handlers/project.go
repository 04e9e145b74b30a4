package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	Projects *services.ProjectService
	Cascade  *services.CascadeEngine
	Audit    *services.AuditService
}

func NewProjectHandler(projects *services.ProjectService, cascade *services.CascadeEngine, audit *services.AuditService) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Cascade: cascade, Audit: audit}
}

// List handles POST /api/projects/list
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.Projects.ListProjects(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "projects": projects})
}

// Get handles POST /api/projects/get
func (h *ProjectHandler) Get(c *gin.Context) {
	var input struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	project, err := h.Projects.RequireProjectAccess(c.Request.Context(), identityFrom(c), input.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}

// Create handles POST /api/projects/create
func (h *ProjectHandler) Create(c *gin.Context) {
	identity := identityFrom(c)
	var input db.Project
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	project, err := h.Projects.CreateProject(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "project.create", identity,
		map[string]any{"project_id": project.ID, "name": project.Name}, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"success": true, "project": project})
}

// Update handles POST /api/projects/update
func (h *ProjectHandler) Update(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		ProjectID string `json:"project_id"`
		services.UpdateProjectInput
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	project, err := h.Projects.UpdateProject(c.Request.Context(), identity, input.ProjectID, input.UpdateProjectInput)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "project.update", identity,
		map[string]any{"project_id": project.ID}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}

// Delete handles POST /api/projects/delete. Admin only: removing a
// project takes every dependent record with it.
func (h *ProjectHandler) Delete(c *gin.Context) {
	identity := identityFrom(c)
	if err := authz.RequireAdmin(identity); err != nil {
		respondError(c, err)
		return
	}
	var input struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if input.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": "project_id is required"})
		return
	}

	result := h.Cascade.CascadeDelete(c.Request.Context(), input.ProjectID)
	h.Audit.Record(c.Request.Context(), "project.delete", identity, map[string]any{
		"project_id": input.ProjectID,
		"deleted":    result.Deleted,
		"errors":     len(result.Errors),
	}, c.ClientIP())

	if result.Failed() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL",
			"message": "cascade finished with errors",
			"deleted": result.Deleted,
			"errors":  result.Errors,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": result.Deleted})
}

// AddMember handles POST /api/projects/members/add
func (h *ProjectHandler) AddMember(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		ProjectID string `json:"project_id"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	project, err := h.Projects.AddAssignedUser(c.Request.Context(), identity, input.ProjectID, input.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "project.members.add", identity,
		map[string]any{"project_id": input.ProjectID, "email": input.Email}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}

// RemoveMember handles POST /api/projects/members/remove
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		ProjectID string `json:"project_id"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	project, err := h.Projects.RemoveAssignedUser(c.Request.Context(), identity, input.ProjectID, input.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "project.members.remove", identity,
		map[string]any{"project_id": input.ProjectID, "email": input.Email}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}
