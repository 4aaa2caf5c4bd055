package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound    = apierrors.New(apierrors.KindNotFound, "Project not found")
	ErrTeamMemberNotFound = apierrors.Validation("Team member does not exist")
)

// ProjectService handles project business logic, scoped to the owner like
// TaskService.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	activity    *ActivityRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	activity *ActivityRecorder,
	logger *zap.Logger,
) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		activity:    activity,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListProjectsInput represents filters for listing projects
type ListProjectsInput struct {
	Status   *models.ProjectStatus
	Priority *models.ProjectPriority
	Category *models.ProjectCategory
	Search   string
	Limit    int
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name           string
	Description    string
	Status         models.ProjectStatus
	Priority       models.ProjectPriority
	Category       models.ProjectCategory
	Budget         string
	StartDate      *time.Time
	Deadline       *time.Time
	ProjectManager string
	Client         string
	TeamIDs        []uint64
}

// ProjectPatch lists the project fields that may be updated. Nil fields are
// left untouched; a non-nil TeamIDs replaces the whole team.
type ProjectPatch struct {
	Name           *string
	Description    *string
	Status         *models.ProjectStatus
	Priority       *models.ProjectPriority
	Category       *models.ProjectCategory
	Budget         *string
	StartDate      *time.Time
	Deadline       *time.Time
	ProjectManager *string
	Client         *string
	TeamIDs        []uint64
}

// ListProjects returns the owner's projects, newest first
func (s *ProjectService) ListProjects(ctx context.Context, ownerID uint64, input ListProjectsInput) ([]models.Project, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, apierrors.Validationf("Invalid status %q", *input.Status)
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apierrors.Validationf("Invalid priority %q", *input.Priority)
	}
	if input.Category != nil && !input.Category.Valid() {
		return nil, apierrors.Validationf("Invalid category %q", *input.Category)
	}

	projects, err := s.projectRepo.List(ctx, repository.ProjectFilter{
		OwnerID:  ownerID,
		Status:   input.Status,
		Priority: input.Priority,
		Category: input.Category,
		Search:   input.Search,
		Limit:    clampLimit(input.Limit, constants.DefaultProjectListLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one of the owner's projects with its team
func (s *ProjectService) GetProject(ctx context.Context, ownerID, projectID uint64) (*models.Project, error) {
	return s.findProject(ctx, ownerID, projectID)
}

// CreateProject validates and stores a new project. Nothing is written when
// validation fails.
func (s *ProjectService) CreateProject(ctx context.Context, ownerID uint64, input CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Description) == "" ||
		input.Deadline == nil || input.Deadline.IsZero() || strings.TrimSpace(input.ProjectManager) == "" {
		return nil, apierrors.Validation("Name, description, deadline, and project manager are required")
	}
	if err := validateText("Name", input.Name, true, constants.MaxProjectNameLength); err != nil {
		return nil, err
	}
	if err := validateText("Description", input.Description, true, constants.MaxProjectDescriptionLength); err != nil {
		return nil, err
	}
	if err := validateText("Project manager", input.ProjectManager, true, constants.MaxNameLength); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusPlanning
	}
	if !input.Status.Valid() {
		return nil, apierrors.Validationf("Invalid status %q", input.Status)
	}
	if input.Priority == "" {
		input.Priority = models.ProjectPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, apierrors.Validationf("Invalid priority %q", input.Priority)
	}
	if input.Category == "" {
		input.Category = models.ProjectCategoryDevelopment
	}
	if !input.Category.Valid() {
		return nil, apierrors.Validationf("Invalid category %q", input.Category)
	}
	if err := s.ensureUsers(ctx, input.TeamIDs); err != nil {
		return nil, err
	}

	now := s.now()
	startDate := now
	if input.StartDate != nil && !input.StartDate.IsZero() {
		startDate = input.StartDate.UTC()
	}

	project := &models.Project{
		Name:           strings.TrimSpace(input.Name),
		Description:    strings.TrimSpace(input.Description),
		Priority:       input.Priority,
		Category:       input.Category,
		Budget:         strings.TrimSpace(input.Budget),
		StartDate:      startDate,
		Deadline:       input.Deadline.UTC(),
		ProjectManager: strings.TrimSpace(input.ProjectManager),
		Client:         strings.TrimSpace(input.Client),
		OwnerID:        ownerID,
	}
	project.SetStatus(input.Status, now)

	if err := s.projectRepo.Create(ctx, project, input.TeamIDs); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.recordProject(ctx, ownerID, project, models.ActivityCreated, "Created project")

	return s.findProject(ctx, ownerID, project.ID)
}

// UpdateProject applies patch to one of the owner's projects
func (s *ProjectService) UpdateProject(ctx context.Context, ownerID, projectID uint64, patch ProjectPatch) (*models.Project, error) {
	project, err := s.findProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := validateText("Name", *patch.Name, true, constants.MaxProjectNameLength); err != nil {
			return nil, err
		}
		project.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		if err := validateText("Description", *patch.Description, true, constants.MaxProjectDescriptionLength); err != nil {
			return nil, err
		}
		project.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, apierrors.Validationf("Invalid priority %q", *patch.Priority)
		}
		project.Priority = *patch.Priority
	}
	if patch.Category != nil {
		if !patch.Category.Valid() {
			return nil, apierrors.Validationf("Invalid category %q", *patch.Category)
		}
		project.Category = *patch.Category
	}
	if patch.Budget != nil {
		project.Budget = strings.TrimSpace(*patch.Budget)
	}
	if patch.StartDate != nil && !patch.StartDate.IsZero() {
		project.StartDate = patch.StartDate.UTC()
	}
	if patch.Deadline != nil {
		if patch.Deadline.IsZero() {
			return nil, apierrors.Validation("Deadline is required")
		}
		project.Deadline = patch.Deadline.UTC()
	}
	if patch.ProjectManager != nil {
		if err := validateText("Project manager", *patch.ProjectManager, true, constants.MaxNameLength); err != nil {
			return nil, err
		}
		project.ProjectManager = strings.TrimSpace(*patch.ProjectManager)
	}
	if patch.Client != nil {
		project.Client = strings.TrimSpace(*patch.Client)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apierrors.Validationf("Invalid status %q", *patch.Status)
		}
		project.SetStatus(*patch.Status, s.now())
	}
	if patch.TeamIDs != nil {
		if err := s.ensureUsers(ctx, patch.TeamIDs); err != nil {
			return nil, err
		}
	}

	if err := s.projectRepo.Update(ctx, project, patch.TeamIDs); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	s.recordProject(ctx, ownerID, project, models.ActivityUpdated, "Updated project")

	return s.findProject(ctx, ownerID, project.ID)
}

// DeleteProject removes one of the owner's projects and its team
func (s *ProjectService) DeleteProject(ctx context.Context, ownerID, projectID uint64) error {
	project, err := s.findProject(ctx, ownerID, projectID)
	if err != nil {
		return err
	}
	if err := s.projectRepo.DeleteOwned(ctx, projectID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}
	s.recordProject(ctx, ownerID, project, models.ActivityDeleted, "Deleted project")
	return nil
}

// AddTeamMember adds userID to the team. Adding an existing member changes
// nothing.
func (s *ProjectService) AddTeamMember(ctx context.Context, ownerID, projectID, userID uint64) (*models.Project, error) {
	if userID == 0 {
		return nil, apierrors.Validation("Team member is required")
	}
	project, err := s.findProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if hasMember(project, userID) {
		return project, nil
	}
	if err := s.ensureUsers(ctx, []uint64{userID}); err != nil {
		return nil, err
	}

	if err := s.projectRepo.AddMember(ctx, project.ID, userID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}
	return s.findProject(ctx, ownerID, project.ID)
}

// RemoveTeamMember removes userID from the team. Removing someone who is not
// a member returns the project unchanged.
func (s *ProjectService) RemoveTeamMember(ctx context.Context, ownerID, projectID, userID uint64) (*models.Project, error) {
	if userID == 0 {
		return nil, apierrors.Validation("Team member is required")
	}
	project, err := s.findProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if !hasMember(project, userID) {
		return project, nil
	}

	if err := s.projectRepo.RemoveMember(ctx, project.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove team member: %w", err)
	}
	return s.findProject(ctx, ownerID, project.ID)
}

// Stats aggregates the owner's projects
func (s *ProjectService) Stats(ctx context.Context, ownerID uint64) (models.ProjectStats, error) {
	stats, err := s.projectRepo.Stats(ctx, ownerID, s.now())
	if err != nil {
		return models.ProjectStats{}, fmt.Errorf("failed to compute project stats: %w", err)
	}
	return stats, nil
}

// ByStatus groups the owner's projects by status
func (s *ProjectService) ByStatus(ctx context.Context, ownerID uint64) ([]models.StatusCount, error) {
	counts, err := s.projectRepo.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to group projects: %w", err)
	}
	return counts, nil
}

// UpcomingDeadlines returns unfinished projects due within the next days days
func (s *ProjectService) UpcomingDeadlines(ctx context.Context, ownerID uint64, days int) ([]models.Project, error) {
	if days == 0 {
		days = constants.DefaultDeadlineDays
	}
	if days < 0 || days > constants.MaxUpcomingDays {
		return nil, apierrors.Validationf("Days must be between 1 and %d", constants.MaxUpcomingDays)
	}

	now := s.now()
	projects, err := s.projectRepo.DeadlinesBetween(ctx, ownerID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("failed to list deadlines: %w", err)
	}
	return projects, nil
}

// Now returns the service clock, used when rendering derived fields.
func (s *ProjectService) Now() time.Time {
	return s.now()
}

func (s *ProjectService) findProject(ctx context.Context, ownerID, projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindOwned(ctx, projectID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) ensureUsers(ctx context.Context, userIDs []uint64) error {
	for _, id := range userIDs {
		if _, err := s.userRepo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeamMemberNotFound
			}
			return fmt.Errorf("failed to find team member: %w", err)
		}
	}
	return nil
}

func (s *ProjectService) recordProject(ctx context.Context, ownerID uint64, project *models.Project, action models.ActivityAction, verb string) {
	s.activity.Record(ctx, models.Activity{
		UserID:      ownerID,
		Action:      action,
		ActionType:  models.ActivityTypeProject,
		TargetID:    project.ID,
		Description: truncate(fmt.Sprintf("%s %q", verb, project.Name), 255),
	})
}

func hasMember(project *models.Project, userID uint64) bool {
	for _, m := range project.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
