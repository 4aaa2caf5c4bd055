package models

import "time"

type ActivityAction string

const (
	ActivityCreated         ActivityAction = "created"
	ActivityUpdated         ActivityAction = "updated"
	ActivityDeleted         ActivityAction = "deleted"
	ActivityPasswordChanged ActivityAction = "password_changed"
	ActivityLoggedIn        ActivityAction = "logged_in"
)

type ActivityType string

const (
	ActivityTypeUser    ActivityType = "user"
	ActivityTypeTask    ActivityType = "task"
	ActivityTypeProject ActivityType = "project"
)

// Activity is an audit record of a mutation performed by a user.
type Activity struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	UserID      uint64         `gorm:"not null;index" json:"userId"`
	Action      ActivityAction `gorm:"type:varchar(30);not null" json:"action"`
	ActionType  ActivityType   `gorm:"type:varchar(20);not null;index" json:"actionType"`
	TargetID    uint64         `gorm:"not null" json:"targetId"`
	Description string         `gorm:"type:varchar(255)" json:"description"`
	IP          string         `gorm:"type:varchar(64)" json:"ip,omitempty"`
	UserAgent   string         `gorm:"type:varchar(255)" json:"userAgent,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
}
