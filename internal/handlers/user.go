package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

// UserHandler serves the user directory
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns one page of the directory
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, page, err := h.userService.ListUsers(c.Request.Context(), services.ListUsersInput{
		Search:     c.Query("search"),
		Pagination: utils.GetPaginationParams(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{
		"users":      dto.ToUserDTOs(users),
		"pagination": page,
	})
}

// SearchUsers is the autocomplete lookup
func (h *UserHandler) SearchUsers(c *gin.Context) {
	limit := utils.QueryInt(c, "limit", constants.DefaultPageSize)
	users, err := h.userService.SearchUsers(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"users": dto.ToUserSummaryDTOs(users)})
}

// GetUser returns one user
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"user": dto.ToUserDTO(*user)})
}

// UpdateUser changes a user's name or email
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorID, middleware.GetIDParam(c), services.UserPatch{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "User updated successfully", gin.H{"user": dto.ToUserDTO(*user)})
}

// DeleteUser removes a user and everything they own
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actorID, middleware.GetIDParam(c)); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "User deleted successfully", nil)
}

// Stats summarizes the directory
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.userService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"stats": stats})
}

// RefreshMetrics recomputes a user's task counters
func (h *UserHandler) RefreshMetrics(c *gin.Context) {
	user, err := h.userService.RefreshMetrics(c.Request.Context(), middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "User metrics updated successfully", gin.H{"user": dto.ToUserDTO(*user)})
}
