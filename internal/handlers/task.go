package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the caller's tasks, newest first
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input := services.ListTasksInput{
		Completed: utils.QueryBool(c, "completed"),
		Starred:   utils.QueryBool(c, "starred"),
		Search:    c.Query("search"),
		Limit:     utils.QueryInt(c, "limit", constants.DefaultTaskListLimit),
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}
	if v := c.Query("category"); v != "" {
		category := models.TaskCategory(v)
		input.Category = &category
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"tasks": dto.ToTaskDTOs(tasks, h.taskService.Now())})
}

// GetTask returns one of the caller's tasks
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), userID, middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusOK, "", task)
}

// CreateTask creates a new task owned by the caller
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), userID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.TaskPriority(req.Priority),
		Category:    models.TaskCategory(req.Category),
		DueDate:     req.DueDate.TimePtr(),
		AssigneeID:  req.AssigneeID,
		ProjectID:   req.ProjectID,
		Starred:     req.Starred,
		Completed:   req.Completed,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusCreated, "Task created successfully", task)
}

// UpdateTask applies a partial update to one of the caller's tasks
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.TimePtr(),
		AssigneeID:  req.AssigneeID,
		Completed:   req.Completed,
		Starred:     req.Starred,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.Category != nil {
		category := models.TaskCategory(*req.Category)
		patch.Category = &category
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), userID, middleware.GetIDParam(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusOK, "Task updated successfully", task)
}

// ToggleTask flips completion
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleCompletion(c.Request.Context(), userID, middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusOK, "Task toggled successfully", task)
}

// ToggleStar flips the star
func (h *TaskHandler) ToggleStar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleStar(c.Request.Context(), userID, middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusOK, "Task starred/unstarred successfully", task)
}

// DeleteTask removes one of the caller's tasks
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), userID, middleware.GetIDParam(c)); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "Task deleted successfully", nil)
}

// Stats aggregates the caller's tasks
func (h *TaskHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.taskService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"stats": stats})
}

// ByPriority groups the caller's tasks by priority
func (h *TaskHandler) ByPriority(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	counts, err := h.taskService.ByPriority(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"priorities": counts})
}

// Upcoming returns open tasks due within the requested number of days
func (h *TaskHandler) Upcoming(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	days := utils.QueryInt(c, "days", constants.DefaultUpcomingDays)
	tasks, err := h.taskService.Upcoming(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"tasks": dto.ToTaskDTOs(tasks, h.taskService.Now())})
}

func (h *TaskHandler) respondTask(c *gin.Context, status int, message string, task *models.Task) {
	apierrors.OK(c, status, message, gin.H{"task": dto.ToTaskDTO(*task, h.taskService.Now())})
}
