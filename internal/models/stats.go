package models

// TaskStats is the single-pass aggregate over one owner's tasks.
type TaskStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Starred   int64 `json:"starred"`
	Overdue   int64 `json:"overdue"`
}

// PriorityCount groups an owner's tasks by priority.
type PriorityCount struct {
	Priority  TaskPriority `json:"priority"`
	Count     int64        `json:"count"`
	Completed int64        `json:"completed"`
}

// ProjectStats is the single-pass aggregate over one owner's projects.
type ProjectStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Planning  int64 `json:"planning"`
	Overdue   int64 `json:"overdue"`
}

// StatusCount groups an owner's projects by status.
type StatusCount struct {
	Status ProjectStatus `json:"status"`
	Count  int64         `json:"count"`
}

// AssigneeCounts are the values Counter Sync persists on a user.
type AssigneeCounts struct {
	Completed int64
	Active    int64
}

// UserStats summarizes the whole user directory.
type UserStats struct {
	TotalUsers        int64   `json:"totalUsers"`
	RecentlyActive    int64   `json:"recentlyActive"`
	InactiveUsers     int64   `json:"inactiveUsers"`
	TasksCompleted    int64   `json:"tasksCompleted"`
	TasksActive       int64   `json:"tasksActive"`
	AvgTasksCompleted float64 `json:"avgTasksCompleted"`
}
