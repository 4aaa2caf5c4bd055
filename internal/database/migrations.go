package database

import (
	"fmt"

	"github.com/yukikurage/taskflow-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{
		&models.User{},
		&models.Task{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Activity{},
	}
}

// Migrate creates or updates the schema and the secondary indexes.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}

// AddIndexes adds the query indexes used by the owner-scoped listings.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		model   any
		name    string
		columns string
	}{
		{&models.Task{}, "idx_tasks_owner_created", "owner_id, created_at"},
		{&models.Task{}, "idx_tasks_owner_due", "owner_id, completed, due_date"},
		{&models.Project{}, "idx_projects_owner_created", "owner_id, created_at"},
		{&models.Project{}, "idx_projects_owner_deadline", "owner_id, status, deadline"},
		{&models.Activity{}, "idx_activities_user_created", "user_id, created_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Info("created index", zap.String("index", idx.name), zap.String("table", stmt.Schema.Table))
	}

	return nil
}
