package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	Tasks *services.TaskService
	Audit *services.AuditService
}

func NewTaskHandler(tasks *services.TaskService, audit *services.AuditService) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Audit: audit}
}

// List handles POST /api/tasks/list
func (h *TaskHandler) List(c *gin.Context) {
	var input struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	tasks, err := h.Tasks.ListTasks(c.Request.Context(), identityFrom(c), input.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tasks": tasks})
}

// Create handles POST /api/tasks/create
func (h *TaskHandler) Create(c *gin.Context) {
	var input db.Task
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	task, err := h.Tasks.CreateTask(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "task": task})
}

// Update handles POST /api/tasks/update
func (h *TaskHandler) Update(c *gin.Context) {
	var input struct {
		TaskID string `json:"task_id"`
		services.UpdateTaskInput
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	task, err := h.Tasks.UpdateTask(c.Request.Context(), identityFrom(c), input.TaskID, input.UpdateTaskInput)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

// Delete handles POST /api/tasks/delete
func (h *TaskHandler) Delete(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		TaskID string `json:"task_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.Tasks.DeleteTask(c.Request.Context(), identity, input.TaskID); err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "task.delete", identity,
		map[string]any{"task_id": input.TaskID}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// History handles POST /api/tasks/history
func (h *TaskHandler) History(c *gin.Context) {
	var input struct {
		TaskID string `json:"task_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	entries, err := h.Tasks.ScheduleHistory(c.Request.Context(), identityFrom(c), input.TaskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": entries})
}
