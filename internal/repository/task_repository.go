package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Assignee", "Owner").Create(task).Error
}

// FindOwned finds a task by ID within the owner's scope
func (r *GormTaskRepository) FindOwned(ctx context.Context, id, ownerID uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Scopes(database.OwnedBy(ownerID)).Preload("Assignee").First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering, newest first
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.OwnedBy(filter.OwnerID))

	// Apply filters
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Starred != nil {
		query = query.Where("starred = ?", *filter.Starred)
	}
	if expr, args := database.ContainsFoldExpr(filter.Search, "title", "description"); expr != "" {
		// The assignee is stored as a user reference, so it is matched by name.
		assignees := r.db.Model(&models.User{}).Select("id").Where(database.LikeClause("name"), database.LikePattern(filter.Search))
		query = query.Where(r.db.Where(expr, args...).Or("assignee_id IN (?)", assignees))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	tasks := []models.Task{}
	if err := query.Preload("Assignee").Order("created_at DESC").Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Assignee", "Owner").Save(task).Error
}

// DeleteOwned removes a task within the owner's scope
func (r *GormTaskRepository) DeleteOwned(ctx context.Context, id, ownerID uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedBy(ownerID)).First(&task, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, task.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Stats aggregates the owner's tasks in a single query
func (r *GormTaskRepository) Stats(ctx context.Context, ownerID uint64, now time.Time) (models.TaskStats, error) {
	var stats models.TaskStats
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(database.OwnedBy(ownerID)).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN completed = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN completed = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN starred = ? THEN 1 ELSE 0 END), 0) AS starred,
			COALESCE(SUM(CASE WHEN completed = ? AND due_date < ? THEN 1 ELSE 0 END), 0) AS overdue`,
			true, false, true, false, now).
		Scan(&stats).Error
	return stats, err
}

// CountByPriority groups the owner's tasks by priority
func (r *GormTaskRepository) CountByPriority(ctx context.Context, ownerID uint64) ([]models.PriorityCount, error) {
	counts := []models.PriorityCount{}
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(database.OwnedBy(ownerID)).
		Select(`priority, COUNT(*) AS count,
			COALESCE(SUM(CASE WHEN completed = ? THEN 1 ELSE 0 END), 0) AS completed`, true).
		Group("priority").
		Order("priority ASC").
		Scan(&counts).Error
	return counts, err
}

// DueBetween returns open tasks due within [from, to]
func (r *GormTaskRepository) DueBetween(ctx context.Context, ownerID uint64, from, to time.Time) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Where("completed = ?", false).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Preload("Assignee").
		Order("due_date ASC").Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// CountForAssignee counts the tasks assigned to a user across all owners
func (r *GormTaskRepository) CountForAssignee(ctx context.Context, assigneeID uint64) (models.AssigneeCounts, error) {
	var counts models.AssigneeCounts
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("assignee_id = ?", assigneeID).
		Select(`COALESCE(SUM(CASE WHEN completed = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN completed = ? THEN 1 ELSE 0 END), 0) AS active`, true, false).
		Scan(&counts).Error
	return counts, err
}

// AssigneeIDsForOwner lists who the owner's tasks are assigned to
func (r *GormTaskRepository) AssigneeIDsForOwner(ctx context.Context, ownerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(database.OwnedBy(ownerID)).
		Distinct().
		Pluck("assignee_id", &ids).Error
	return ids, err
}
