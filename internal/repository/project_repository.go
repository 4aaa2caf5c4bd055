package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project and its team atomically
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project, memberIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		return insertMembers(tx, project.ID, memberIDs, project.CreatedAt)
	})
}

// FindOwned finds a project by ID within the owner's scope
func (r *GormProjectRepository) FindOwned(ctx context.Context, id, ownerID uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC").Order("user_id ASC")
		}).
		Preload("Members.User").
		First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves projects with filtering, newest first
func (r *GormProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{}).
		Scopes(
			database.OwnedBy(filter.OwnerID),
			database.ContainsFold(filter.Search, "name", "description", "category", "project_manager"),
		)

	// Apply filters
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	projects := []models.Project{}
	if err := query.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC").Order("user_id ASC")
		}).
		Preload("Members.User").
		Order("created_at DESC").Order("id DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update saves a project and optionally replaces its team
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project, memberIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(project).Error; err != nil {
			return err
		}
		if memberIDs == nil {
			return nil
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return insertMembers(tx, project.ID, memberIDs, project.UpdatedAt)
	})
}

// DeleteOwned deletes a project and its team within the owner's scope
func (r *GormProjectRepository) DeleteOwned(ctx context.Context, id, ownerID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(database.OwnedBy(ownerID)).Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error
	})
}

// AddMember adds a member, leaving an existing membership untouched
func (r *GormProjectRepository) AddMember(ctx context.Context, projectID, userID uint64, at time.Time) error {
	return insertMembers(r.db.WithContext(ctx), projectID, []uint64{userID}, at)
}

// RemoveMember removes a member if present
func (r *GormProjectRepository) RemoveMember(ctx context.Context, projectID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// Stats aggregates the owner's projects in a single query
func (r *GormProjectRepository) Stats(ctx context.Context, ownerID uint64, now time.Time) (models.ProjectStats, error) {
	var stats models.ProjectStats
	err := r.db.WithContext(ctx).Model(&models.Project{}).
		Scopes(database.OwnedBy(ownerID)).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS planning,
			COALESCE(SUM(CASE WHEN status <> ? AND deadline < ? THEN 1 ELSE 0 END), 0) AS overdue`,
			models.ProjectStatusActive, models.ProjectStatusCompleted, models.ProjectStatusPlanning,
			models.ProjectStatusCompleted, now).
		Scan(&stats).Error
	return stats, err
}

// CountByStatus groups the owner's projects by status
func (r *GormProjectRepository) CountByStatus(ctx context.Context, ownerID uint64) ([]models.StatusCount, error) {
	counts := []models.StatusCount{}
	err := r.db.WithContext(ctx).Model(&models.Project{}).
		Scopes(database.OwnedBy(ownerID)).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&counts).Error
	return counts, err
}

// DeadlinesBetween returns unfinished projects with a deadline in [from, to]
func (r *GormProjectRepository) DeadlinesBetween(ctx context.Context, ownerID uint64, from, to time.Time) ([]models.Project, error) {
	projects := []models.Project{}
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Where("status <> ?", models.ProjectStatusCompleted).
		Where("deadline >= ? AND deadline <= ?", from, to).
		Preload("Members.User").
		Order("deadline ASC").Order("id ASC").
		Find(&projects).Error
	return projects, err
}

func insertMembers(tx *gorm.DB, projectID uint64, userIDs []uint64, at time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	members := make([]models.ProjectMember, 0, len(userIDs))
	seen := make(map[uint64]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, models.ProjectMember{ProjectID: projectID, UserID: id, AddedAt: at})
	}
	return tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&members).Error
}
