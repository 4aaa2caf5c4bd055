package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Completed   bool                `json:"completed"`
	Starred     bool                `json:"starred"`
	Priority    models.TaskPriority `json:"priority"`
	Category    models.TaskCategory `json:"category"`
	DueDate     time.Time           `json:"dueDate"`
	Status      models.TaskStatus   `json:"status"`
	CompletedAt *time.Time          `json:"completedAt"`
	IsOverdue   bool                `json:"isOverdue"`
	AssigneeID  uint64              `json:"assigneeId"`
	Assignee    *UserSummaryDTO     `json:"assignee,omitempty"`
	ProjectID   *uint64             `json:"projectId"`
	OwnerID     uint64              `json:"ownerId"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// CreateTaskRequest is the body of POST /tasks. Missing required fields are
// reported by the task service.
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"max=200"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	DueDate     *Date   `json:"dueDate"`
	AssigneeID  uint64  `json:"assignee"`
	ProjectID   *uint64 `json:"projectId"`
	Starred     bool    `json:"starred"`
	Completed   bool    `json:"completed"`
}

// UpdateTaskRequest is the body of PUT /tasks/:id. Absent fields are left
// untouched and unknown fields are ignored.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	DueDate     *Date   `json:"dueDate"`
	AssigneeID  *uint64 `json:"assignee"`
	Completed   *bool   `json:"completed"`
	Starred     *bool   `json:"starred"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		Starred:     task.Starred,
		Priority:    task.Priority,
		Category:    task.Category,
		DueDate:     task.DueDate,
		Status:      task.Status,
		CompletedAt: task.CompletedAt,
		IsOverdue:   task.IsOverdue(now),
		AssigneeID:  task.AssigneeID,
		ProjectID:   task.ProjectID,
		OwnerID:     task.OwnerID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.Assignee.ID != 0 {
		assignee := ToUserSummaryDTO(task.Assignee)
		dto.Assignee = &assignee
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task, now time.Time) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		out[i] = ToTaskDTO(task, now)
	}
	return out
}
