package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

type ProjectPriority string

const (
	ProjectPriorityLow      ProjectPriority = "low"
	ProjectPriorityMedium   ProjectPriority = "medium"
	ProjectPriorityHigh     ProjectPriority = "high"
	ProjectPriorityCritical ProjectPriority = "critical"
)

// Valid reports whether p is a known project priority.
func (p ProjectPriority) Valid() bool {
	switch p {
	case ProjectPriorityLow, ProjectPriorityMedium, ProjectPriorityHigh, ProjectPriorityCritical:
		return true
	}
	return false
}

type ProjectCategory string

const (
	ProjectCategoryDevelopment ProjectCategory = "Development"
	ProjectCategoryDesign      ProjectCategory = "Design"
	ProjectCategorySecurity    ProjectCategory = "Security"
	ProjectCategoryAnalytics   ProjectCategory = "Analytics"
	ProjectCategoryMobile      ProjectCategory = "Mobile"
	ProjectCategoryMarketing   ProjectCategory = "Marketing"
)

// Valid reports whether c is a known project category.
func (c ProjectCategory) Valid() bool {
	switch c {
	case ProjectCategoryDevelopment, ProjectCategoryDesign, ProjectCategorySecurity,
		ProjectCategoryAnalytics, ProjectCategoryMobile, ProjectCategoryMarketing:
		return true
	}
	return false
}

type Project struct {
	ID             uint64          `gorm:"primarykey" json:"id"`
	Name           string          `gorm:"type:varchar(150);not null" json:"name"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	Status         ProjectStatus   `gorm:"type:varchar(20);not null;default:'planning';index" json:"status"`
	Priority       ProjectPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Category       ProjectCategory `gorm:"type:varchar(30);not null;default:'Development'" json:"category"`
	Budget         string          `gorm:"type:varchar(100)" json:"budget"`
	StartDate      time.Time       `json:"startDate"`
	Deadline       time.Time       `gorm:"not null;index" json:"deadline"`
	CompletedAt    *time.Time      `json:"completedAt"`
	ProjectManager string          `gorm:"type:varchar(100);not null" json:"projectManager"`
	Client         string          `gorm:"type:varchar(150)" json:"client"`
	OwnerID        uint64          `gorm:"not null;index" json:"ownerId"`
	CreatedAt      time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	// Relations
	Owner   User            `gorm:"foreignKey:OwnerID" json:"-"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
}

// SetStatus changes the status and stamps or clears completedAt when the
// project enters or leaves the completed state.
func (p *Project) SetStatus(status ProjectStatus, now time.Time) {
	if p.Status == status {
		return
	}
	p.Status = status
	if status == ProjectStatusCompleted {
		p.CompletedAt = &now
		return
	}
	p.CompletedAt = nil
}

// IsOverdue reports whether an unfinished project is past its deadline.
func (p *Project) IsOverdue(now time.Time) bool {
	return p.Status != ProjectStatusCompleted && p.Deadline.Before(now)
}
