package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/events"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound       = apierrors.New(apierrors.KindNotFound, "Task not found")
	ErrAssigneeNotFound   = apierrors.Validation("Assignee does not exist")
	ErrTaskProjectMissing = apierrors.Validation("Project does not exist")
)

// TaskService handles task business logic. Every operation is scoped to the
// owner passed in; tasks of other owners behave as if they did not exist.
type TaskService struct {
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	bus         *events.Bus
	activity    *ActivityRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	bus *events.Bus,
	activity *ActivityRecorder,
	logger *zap.Logger,
) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &TaskService{
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		bus:         bus,
		activity:    activity,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Completed *bool
	Priority  *models.TaskPriority
	Category  *models.TaskCategory
	Starred   *bool
	Search    string
	Limit     int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	Category    models.TaskCategory
	DueDate     *time.Time
	AssigneeID  uint64
	ProjectID   *uint64
	Starred     bool
	Completed   bool
}

// TaskPatch lists the task fields that may be updated. Nil fields are left
// untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *models.TaskPriority
	Category    *models.TaskCategory
	DueDate     *time.Time
	AssigneeID  *uint64
	Completed   *bool
	Starred     *bool
}

// ListTasks returns the owner's tasks, newest first
func (s *TaskService) ListTasks(ctx context.Context, ownerID uint64, input ListTasksInput) ([]models.Task, error) {
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apierrors.Validationf("Invalid priority %q", *input.Priority)
	}
	if input.Category != nil && !input.Category.Valid() {
		return nil, apierrors.Validationf("Invalid category %q", *input.Category)
	}

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{
		OwnerID:   ownerID,
		Completed: input.Completed,
		Priority:  input.Priority,
		Category:  input.Category,
		Starred:   input.Starred,
		Search:    input.Search,
		Limit:     clampLimit(input.Limit, constants.DefaultTaskListLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns one of the owner's tasks
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	return s.findTask(ctx, ownerID, taskID)
}

// CreateTask validates and stores a new task
func (s *TaskService) CreateTask(ctx context.Context, ownerID uint64, input CreateTaskInput) (*models.Task, error) {
	if err := validateText("Title", input.Title, true, constants.MaxTaskTitleLength); err != nil {
		return nil, err
	}
	if err := validateText("Description", input.Description, false, constants.MaxTaskDescriptionLength); err != nil {
		return nil, err
	}
	if input.DueDate == nil || input.DueDate.IsZero() {
		return nil, apierrors.Validation("Due date is required")
	}
	if input.AssigneeID == 0 {
		return nil, apierrors.Validation("Assignee is required")
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, apierrors.Validationf("Invalid priority %q", input.Priority)
	}
	if input.Category == "" {
		input.Category = models.TaskCategoryBusiness
	}
	if !input.Category.Valid() {
		return nil, apierrors.Validationf("Invalid category %q", input.Category)
	}

	if err := s.ensureAssignee(ctx, input.AssigneeID); err != nil {
		return nil, err
	}
	if input.ProjectID != nil {
		if _, err := s.projectRepo.FindOwned(ctx, *input.ProjectID, ownerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTaskProjectMissing
			}
			return nil, fmt.Errorf("failed to find project: %w", err)
		}
	}

	task := &models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Priority:    input.Priority,
		Category:    input.Category,
		DueDate:     input.DueDate.UTC(),
		AssigneeID:  input.AssigneeID,
		ProjectID:   input.ProjectID,
		OwnerID:     ownerID,
		Starred:     input.Starred,
		Status:      models.TaskStatusTodo,
	}
	task.SetCompleted(input.Completed, s.now())

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.bus.Publish(ctx, events.TaskEvent{
		Kind:    events.TaskCreated,
		TaskID:  task.ID,
		OwnerID: ownerID,
		UserIDs: []uint64{task.AssigneeID},
	})
	s.recordTask(ctx, ownerID, task, models.ActivityCreated, "Created task")

	return s.findTask(ctx, ownerID, task.ID)
}

// UpdateTask applies patch to one of the owner's tasks
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID uint64, patch TaskPatch) (*models.Task, error) {
	task, err := s.findTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	previousAssignee := task.AssigneeID

	if patch.Title != nil {
		if err := validateText("Title", *patch.Title, true, constants.MaxTaskTitleLength); err != nil {
			return nil, err
		}
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		if err := validateText("Description", *patch.Description, false, constants.MaxTaskDescriptionLength); err != nil {
			return nil, err
		}
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, apierrors.Validationf("Invalid priority %q", *patch.Priority)
		}
		task.Priority = *patch.Priority
	}
	if patch.Category != nil {
		if !patch.Category.Valid() {
			return nil, apierrors.Validationf("Invalid category %q", *patch.Category)
		}
		task.Category = *patch.Category
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			return nil, apierrors.Validation("Due date is required")
		}
		task.DueDate = patch.DueDate.UTC()
	}
	if patch.AssigneeID != nil && *patch.AssigneeID != task.AssigneeID {
		if err := s.ensureAssignee(ctx, *patch.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = *patch.AssigneeID
		task.Assignee = models.User{}
	}
	if patch.Starred != nil {
		task.Starred = *patch.Starred
	}
	if patch.Completed != nil {
		task.SetCompleted(*patch.Completed, s.now())
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if patch.Completed != nil || task.AssigneeID != previousAssignee {
		s.bus.Publish(ctx, events.TaskEvent{
			Kind:    events.TaskUpdated,
			TaskID:  task.ID,
			OwnerID: ownerID,
			UserIDs: []uint64{previousAssignee, task.AssigneeID},
		})
	}
	s.recordTask(ctx, ownerID, task, models.ActivityUpdated, "Updated task")

	return s.findTask(ctx, ownerID, task.ID)
}

// ToggleCompletion flips the completed flag
func (s *TaskService) ToggleCompletion(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	task.SetCompleted(!task.Completed, s.now())
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.bus.Publish(ctx, events.TaskEvent{
		Kind:    events.TaskToggled,
		TaskID:  task.ID,
		OwnerID: ownerID,
		UserIDs: []uint64{task.AssigneeID},
	})
	return task, nil
}

// ToggleStar flips the starred flag. Counters are unaffected.
func (s *TaskService) ToggleStar(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	task.Starred = !task.Starred
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// DeleteTask removes one of the owner's tasks
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID uint64) error {
	task, err := s.taskRepo.DeleteOwned(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.bus.Publish(ctx, events.TaskEvent{
		Kind:    events.TaskDeleted,
		TaskID:  task.ID,
		OwnerID: ownerID,
		UserIDs: []uint64{task.AssigneeID},
	})
	s.recordTask(ctx, ownerID, task, models.ActivityDeleted, "Deleted task")
	return nil
}

// Stats aggregates the owner's tasks
func (s *TaskService) Stats(ctx context.Context, ownerID uint64) (models.TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx, ownerID, s.now())
	if err != nil {
		return models.TaskStats{}, fmt.Errorf("failed to compute task stats: %w", err)
	}
	return stats, nil
}

// ByPriority groups the owner's tasks by priority
func (s *TaskService) ByPriority(ctx context.Context, ownerID uint64) ([]models.PriorityCount, error) {
	counts, err := s.taskRepo.CountByPriority(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to group tasks: %w", err)
	}
	return counts, nil
}

// Upcoming returns open tasks due within the next days days, soonest first
func (s *TaskService) Upcoming(ctx context.Context, ownerID uint64, days int) ([]models.Task, error) {
	if days == 0 {
		days = constants.DefaultUpcomingDays
	}
	if days < 0 || days > constants.MaxUpcomingDays {
		return nil, apierrors.Validationf("Days must be between 1 and %d", constants.MaxUpcomingDays)
	}

	now := s.now()
	tasks, err := s.taskRepo.DueBetween(ctx, ownerID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming tasks: %w", err)
	}
	return tasks, nil
}

// Now returns the service clock, used when rendering derived fields.
func (s *TaskService) Now() time.Time {
	return s.now()
}

func (s *TaskService) findTask(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindOwned(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ensureAssignee(ctx context.Context, userID uint64) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	return nil
}

func (s *TaskService) recordTask(ctx context.Context, ownerID uint64, task *models.Task, action models.ActivityAction, verb string) {
	s.activity.Record(ctx, models.Activity{
		UserID:      ownerID,
		Action:      action,
		ActionType:  models.ActivityTypeTask,
		TargetID:    task.ID,
		Description: truncate(fmt.Sprintf("%s %q", verb, task.Title), 255),
	})
}

// clampLimit applies the default for a missing limit and caps large ones.
func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > constants.MaxListLimit {
		return constants.MaxListLimit
	}
	return limit
}
