package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// ProjectDTO represents a project with its team in API responses.
// Tasks, Completed and Progress are always zero: projects are not linked
// to task counts.
type ProjectDTO struct {
	ID             uint64                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Status         models.ProjectStatus   `json:"status"`
	Priority       models.ProjectPriority `json:"priority"`
	Category       models.ProjectCategory `json:"category"`
	Budget         string                 `json:"budget"`
	StartDate      time.Time              `json:"startDate"`
	Deadline       time.Time              `json:"deadline"`
	CompletedAt    *time.Time             `json:"completedAt"`
	ProjectManager string                 `json:"projectManager"`
	Client         string                 `json:"client"`
	Team           []UserSummaryDTO       `json:"team"`
	Tasks          int                    `json:"tasks"`
	Completed      int                    `json:"completed"`
	Progress       int                    `json:"progress"`
	IsOverdue      bool                   `json:"isOverdue"`
	OwnerID        uint64                 `json:"ownerId"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// CreateProjectRequest is the body of POST /projects/create. Required
// fields are checked by the service so the error message names all of them.
type CreateProjectRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	Category       string   `json:"category"`
	Budget         string   `json:"budget"`
	StartDate      *Date    `json:"startDate"`
	Deadline       *Date    `json:"deadline"`
	ProjectManager string   `json:"projectManager"`
	Client         string   `json:"client"`
	Team           []uint64 `json:"team"`
}

// UpdateProjectRequest is the body of PUT /projects/:id. A present team
// replaces the whole team.
type UpdateProjectRequest struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Status         *string   `json:"status"`
	Priority       *string   `json:"priority"`
	Category       *string   `json:"category"`
	Budget         *string   `json:"budget"`
	StartDate      *Date     `json:"startDate"`
	Deadline       *Date     `json:"deadline"`
	ProjectManager *string   `json:"projectManager"`
	Client         *string   `json:"client"`
	Team           *[]uint64 `json:"team"`
}

// TeamMemberRequest is the body of the team add/remove endpoints
type TeamMemberRequest struct {
	UserID uint64 `json:"userId" binding:"required"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project, now time.Time) ProjectDTO {
	team := make([]UserSummaryDTO, 0, len(project.Members))
	for _, member := range project.Members {
		if member.User.ID == 0 {
			continue
		}
		team = append(team, ToUserSummaryDTO(member.User))
	}

	return ProjectDTO{
		ID:             project.ID,
		Name:           project.Name,
		Description:    project.Description,
		Status:         project.Status,
		Priority:       project.Priority,
		Category:       project.Category,
		Budget:         project.Budget,
		StartDate:      project.StartDate,
		Deadline:       project.Deadline,
		CompletedAt:    project.CompletedAt,
		ProjectManager: project.ProjectManager,
		Client:         project.Client,
		Team:           team,
		IsOverdue:      project.IsOverdue(now),
		OwnerID:        project.OwnerID,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project, now time.Time) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		out[i] = ToProjectDTO(project, now)
	}
	return out
}
