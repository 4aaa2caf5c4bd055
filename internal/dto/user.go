package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// UserDTO is the sanitized user returned by every endpoint. It never carries
// the password hash.
type UserDTO struct {
	ID             uint64     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Avatar         string     `json:"avatar"`
	TasksCompleted int64      `json:"tasksCompleted"`
	TasksActive    int64      `json:"tasksActive"`
	LastLogin      *time.Time `json:"lastLogin"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UserSummaryDTO is the short form used for assignees, team members and
// autocomplete results
type UserSummaryDTO struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// AuthDTO is returned by register and login
type AuthDTO struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Avatar:         user.Avatar,
		TasksCompleted: user.TasksCompleted,
		TasksActive:    user.TasksActive,
		LastLogin:      user.LastLogin,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, user := range users {
		out[i] = ToUserDTO(user)
	}
	return out
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Avatar: user.Avatar,
	}
}

// ToUserSummaryDTOs converts a slice of users to summaries
func ToUserSummaryDTOs(users []models.User) []UserSummaryDTO {
	out := make([]UserSummaryDTO, len(users))
	for i, user := range users {
		out[i] = ToUserSummaryDTO(user)
	}
	return out
}

// ToAuthDTO converts a sign-in result
func ToAuthDTO(user models.User, token string, expiresAt time.Time) AuthDTO {
	return AuthDTO{
		User:      ToUserDTO(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}
}
