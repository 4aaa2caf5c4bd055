package models

import (
	"strings"
	"time"

	"github.com/yukikurage/taskflow-api/internal/utils"
)

type User struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	Name           string     `gorm:"type:varchar(100);not null" json:"name"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"type:varchar(255);not null" json:"-"`
	Avatar         string     `gorm:"type:varchar(20)" json:"avatar"`
	TasksCompleted int64      `gorm:"not null;default:0" json:"tasksCompleted"`
	TasksActive    int64      `gorm:"not null;default:0" json:"tasksActive"`
	LastLogin      *time.Time `json:"lastLogin"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// SetName updates the display name and the avatar initials derived from it.
func (u *User) SetName(name string) {
	u.Name = strings.TrimSpace(name)
	u.Avatar = utils.Initials(u.Name)
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
