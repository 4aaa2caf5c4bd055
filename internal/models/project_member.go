package models

import "time"

// ProjectMember links a user into a project's team.
type ProjectMember struct {
	ProjectID uint64    `gorm:"primarykey" json:"projectId"`
	UserID    uint64    `gorm:"primarykey;index" json:"userId"`
	AddedAt   time.Time `json:"addedAt"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
