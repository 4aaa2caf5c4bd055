package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is a known task priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type TaskCategory string

const (
	TaskCategoryBusiness    TaskCategory = "Business"
	TaskCategoryDevelopment TaskCategory = "Development"
	TaskCategoryDesign      TaskCategory = "Design"
	TaskCategoryFinance     TaskCategory = "Finance"
	TaskCategorySecurity    TaskCategory = "Security"
	TaskCategoryMarketing   TaskCategory = "Marketing"
)

// Valid reports whether c is a known task category.
func (c TaskCategory) Valid() bool {
	switch c {
	case TaskCategoryBusiness, TaskCategoryDevelopment, TaskCategoryDesign,
		TaskCategoryFinance, TaskCategorySecurity, TaskCategoryMarketing:
		return true
	}
	return false
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Completed   bool         `gorm:"not null;default:false;index:idx_tasks_assignee_completed,priority:2" json:"completed"`
	Starred     bool         `gorm:"not null;default:false" json:"starred"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Category    TaskCategory `gorm:"type:varchar(30);not null;default:'Business'" json:"category"`
	DueDate     time.Time    `gorm:"not null;index" json:"dueDate"`
	AssigneeID  uint64       `gorm:"not null;index:idx_tasks_assignee_completed,priority:1" json:"assigneeId"`
	ProjectID   *uint64      `gorm:"index" json:"projectId"`
	OwnerID     uint64       `gorm:"not null;index" json:"ownerId"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'todo'" json:"status"`
	CompletedAt *time.Time   `json:"completedAt"`
	CreatedAt   time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	// Relations
	Assignee User `gorm:"foreignKey:AssigneeID" json:"-"`
	Owner    User `gorm:"foreignKey:OwnerID" json:"-"`
}

// SetCompleted flips the completion flag and keeps status and completedAt in
// lockstep with it. Setting the current value again is a no-op.
func (t *Task) SetCompleted(completed bool, now time.Time) {
	if t.Completed == completed {
		return
	}
	t.Completed = completed
	if completed {
		t.Status = TaskStatusCompleted
		t.CompletedAt = &now
		return
	}
	t.Status = TaskStatusTodo
	t.CompletedAt = nil
}

// IsOverdue reports whether the task is still open past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate.Before(now)
}
