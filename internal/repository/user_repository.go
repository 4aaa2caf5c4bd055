package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update writes the profile and credential columns of a user. Task counters
// and last_login have their own writers and are never overwritten here.
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Model(user).
		Select("name", "email", "avatar", "password_hash", "updated_at").
		Updates(user).Error)
}

// UpdateCounters writes the task counters without touching other columns
func (r *GormUserRepository) UpdateCounters(ctx context.Context, id uint64, counts models.AssigneeCounts) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"tasks_completed": counts.Completed,
			"tasks_active":    counts.Active,
		}).Error
}

// TouchLastLogin stamps the last successful login
func (r *GormUserRepository) TouchLastLogin(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}

// Delete removes a user and everything they own
func (r *GormUserRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Project{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Where("project_id IN (?) OR user_id = ?", owned, id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns one page of users, newest first
func (r *GormUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).
		Scopes(database.ContainsFold(filter.Search, "name", "email"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	if err := query.Scopes(database.Paginate(filter.Pagination)).
		Order("created_at DESC").Order("id DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListIDs returns every user id in ascending order
func (r *GormUserRepository) ListIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Stats aggregates the directory in one query
func (r *GormUserRepository) Stats(ctx context.Context, activeSince time.Time) (models.UserStats, error) {
	var row struct {
		TotalUsers     int64
		RecentlyActive int64
		TasksCompleted int64
		TasksActive    int64
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select(`COUNT(*) AS total_users,
			COALESCE(SUM(CASE WHEN last_login >= ? THEN 1 ELSE 0 END), 0) AS recently_active,
			COALESCE(SUM(tasks_completed), 0) AS tasks_completed,
			COALESCE(SUM(tasks_active), 0) AS tasks_active`, activeSince).
		Scan(&row).Error
	if err != nil {
		return models.UserStats{}, err
	}

	stats := models.UserStats{
		TotalUsers:     row.TotalUsers,
		RecentlyActive: row.RecentlyActive,
		InactiveUsers:  row.TotalUsers - row.RecentlyActive,
		TasksCompleted: row.TasksCompleted,
		TasksActive:    row.TasksActive,
	}
	if row.TotalUsers > 0 {
		stats.AvgTasksCompleted = float64(row.TasksCompleted) / float64(row.TotalUsers)
	}
	return stats, nil
}
