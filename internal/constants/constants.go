package constants

import "time"

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "user"
	ContextKeyLogger  = "logger"
	ContextKeyIDParam = "id_param"

	HeaderRequestID = "X-Request-ID"
)

// Account constraints
const (
	MinPasswordLength = 6
	MaxNameLength     = 100
	MaxPasswordBytes  = 72
)

// Task constraints
const (
	MaxTaskTitleLength       = 200
	MaxTaskDescriptionLength = 1000
	DefaultTaskListLimit     = 100
	MaxListLimit             = 1000
	MaxUpcomingDays          = 366
	DefaultUpcomingDays      = 7
)

// Project constraints
const (
	MaxProjectNameLength        = 150
	MaxProjectDescriptionLength = 1000
	DefaultProjectListLimit     = 100
	DefaultDeadlineDays         = 30
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	MinUserSearchLength = 2
)

// RecentActivityWindow is the lastLogin window used by the user directory stats.
const RecentActivityWindow = 7 * 24 * time.Hour

// DefaultBcryptCost matches the work factor the accounts were always hashed with.
const DefaultBcryptCost = 12
