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

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// ListProjects returns the caller's projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input := services.ListProjectsInput{
		Search: c.Query("search"),
		Limit:  utils.QueryInt(c, "limit", constants.DefaultProjectListLimit),
	}
	if v := c.Query("status"); v != "" {
		status := models.ProjectStatus(v)
		input.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.ProjectPriority(v)
		input.Priority = &priority
	}
	if v := c.Query("category"); v != "" {
		category := models.ProjectCategory(v)
		input.Category = &category
	}

	projects, err := h.projectService.ListProjects(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"projects": dto.ToProjectDTOs(projects, h.projectService.Now())})
}

// GetProject returns one of the caller's projects
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), userID, middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondProject(c, http.StatusOK, "", project)
}

// CreateProject creates a new project owned by the caller
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), userID, services.CreateProjectInput{
		Name:           req.Name,
		Description:    req.Description,
		Status:         models.ProjectStatus(req.Status),
		Priority:       models.ProjectPriority(req.Priority),
		Category:       models.ProjectCategory(req.Category),
		Budget:         req.Budget,
		StartDate:      req.StartDate.TimePtr(),
		Deadline:       req.Deadline.TimePtr(),
		ProjectManager: req.ProjectManager,
		Client:         req.Client,
		TeamIDs:        req.Team,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondProject(c, http.StatusCreated, "Project created successfully", project)
}

// UpdateProject applies a partial update to one of the caller's projects
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := services.ProjectPatch{
		Name:           req.Name,
		Description:    req.Description,
		Budget:         req.Budget,
		StartDate:      req.StartDate.TimePtr(),
		Deadline:       req.Deadline.TimePtr(),
		ProjectManager: req.ProjectManager,
		Client:         req.Client,
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := models.ProjectPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.Category != nil {
		category := models.ProjectCategory(*req.Category)
		patch.Category = &category
	}
	if req.Team != nil {
		patch.TeamIDs = append([]uint64{}, *req.Team...)
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), userID, middleware.GetIDParam(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondProject(c, http.StatusOK, "Project updated successfully", project)
}

// DeleteProject removes one of the caller's projects
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), userID, middleware.GetIDParam(c)); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "Project deleted successfully", nil)
}

// AddTeamMember adds a user to the project's team
func (h *ProjectHandler) AddTeamMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.TeamMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.AddTeamMember(c.Request.Context(), userID, middleware.GetIDParam(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondProject(c, http.StatusOK, "Team member added successfully", project)
}

// RemoveTeamMember removes a user from the project's team
func (h *ProjectHandler) RemoveTeamMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.TeamMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.RemoveTeamMember(c.Request.Context(), userID, middleware.GetIDParam(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondProject(c, http.StatusOK, "Team member removed successfully", project)
}

// Stats aggregates the caller's projects
func (h *ProjectHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.projectService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"stats": stats})
}

// ByStatus groups the caller's projects by status
func (h *ProjectHandler) ByStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	counts, err := h.projectService.ByStatus(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"statuses": counts})
}

// Deadlines returns unfinished projects due within the requested number of days
func (h *ProjectHandler) Deadlines(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	days := utils.QueryInt(c, "days", constants.DefaultDeadlineDays)
	projects, err := h.projectService.UpcomingDeadlines(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"projects": dto.ToProjectDTOs(projects, h.projectService.Now())})
}

func (h *ProjectHandler) respondProject(c *gin.Context, status int, message string, project *models.Project) {
	apierrors.OK(c, status, message, gin.H{"project": dto.ToProjectDTO(*project, h.projectService.Now())})
}
