package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusCreated, "User registered successfully",
		dto.ToAuthDTO(*result.User, result.Token, result.ExpiresAt))
}

// Login authenticates a user and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "Login successful",
		dto.ToAuthDTO(*result.User, result.Token, result.ExpiresAt))
}

// GetProfile returns the authenticated user.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "", gin.H{"user": dto.ToUserDTO(*user)})
}

// UpdateProfile changes the authenticated user's name or email.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type UpdateProfileRequest struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, services.ProfilePatch{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "Profile updated successfully", gin.H{"user": dto.ToUserDTO(*user)})
}

// ChangePassword replaces the password after checking the current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}

	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), userID, services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		// A wrong current password is a business error here, not a failed login.
		if errors.Is(err, services.ErrCurrentPasswordIncorrect) {
			apierrors.BadRequest(c, services.ErrCurrentPasswordIncorrect.Message)
			return
		}
		respondError(c, err)
		return
	}

	apierrors.OK(c, http.StatusOK, "Password updated successfully", nil)
}

// Logout acknowledges the logout. Tokens are stateless, so the client drops
// its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	apierrors.OK(c, http.StatusOK, "Logged out successfully", nil)
}
