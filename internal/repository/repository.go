package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/utils"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when an insert or update violates a unique index.
var ErrDuplicateKey = errors.New("repository: duplicate key")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user; ErrDuplicateKey when the email is taken
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves all user columns; ErrDuplicateKey when the email is taken
	Update(ctx context.Context, user *models.User) error

	// UpdateCounters persists the denormalized task counters
	UpdateCounters(ctx context.Context, id uint64, counts models.AssigneeCounts) error

	// TouchLastLogin stamps the last login time
	TouchLastLogin(ctx context.Context, id uint64, at time.Time) error

	// Delete removes a user together with the tasks, projects and team
	// memberships they own
	Delete(ctx context.Context, id uint64) error

	// List returns a page of users matching the filter and the total count
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	// ListIDs returns every user id, used by the counter reconciler
	ListIDs(ctx context.Context) ([]uint64, error)

	// Stats aggregates directory-wide figures; activeSince bounds "recently active"
	Stats(ctx context.Context, activeSince time.Time) (models.UserStats, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Search     string
	Pagination utils.PaginationParams
}

// TaskRepository defines the interface for task data access. Every lookup by
// id is also filtered by owner so foreign rows are indistinguishable from
// missing ones.
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindOwned finds a task by id and owner
	FindOwned(ctx context.Context, id, ownerID uint64) (*models.Task, error)

	// List retrieves an owner's tasks newest first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update saves a task
	Update(ctx context.Context, task *models.Task) error

	// DeleteOwned deletes a task by id and owner and returns the deleted row
	DeleteOwned(ctx context.Context, id, ownerID uint64) (*models.Task, error)

	// Stats aggregates an owner's tasks in a single pass
	Stats(ctx context.Context, ownerID uint64, now time.Time) (models.TaskStats, error)

	// CountByPriority groups an owner's tasks by priority
	CountByPriority(ctx context.Context, ownerID uint64) ([]models.PriorityCount, error)

	// DueBetween returns an owner's open tasks due in [from, to], soonest first
	DueBetween(ctx context.Context, ownerID uint64, from, to time.Time) ([]models.Task, error)

	// CountForAssignee counts completed and open tasks assigned to a user
	CountForAssignee(ctx context.Context, assigneeID uint64) (models.AssigneeCounts, error)

	// AssigneeIDsForOwner lists the distinct assignees of an owner's tasks
	AssigneeIDsForOwner(ctx context.Context, ownerID uint64) ([]uint64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OwnerID   uint64
	Completed *bool
	Priority  *models.TaskPriority
	Category  *models.TaskCategory
	Starred   *bool
	Search    string
	Limit     int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project and its initial team in one transaction
	Create(ctx context.Context, project *models.Project, memberIDs []uint64) error

	// FindOwned finds a project by id and owner with its team loaded
	FindOwned(ctx context.Context, id, ownerID uint64) (*models.Project, error)

	// List retrieves an owner's projects newest first
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)

	// Update saves a project; a non-nil memberIDs replaces the team
	Update(ctx context.Context, project *models.Project, memberIDs []uint64) error

	// DeleteOwned deletes a project by id and owner together with its team
	DeleteOwned(ctx context.Context, id, ownerID uint64) error

	// AddMember adds a user to a project's team; existing members are kept as is
	AddMember(ctx context.Context, projectID, userID uint64, at time.Time) error

	// RemoveMember removes a user from a project's team if present
	RemoveMember(ctx context.Context, projectID, userID uint64) error

	// Stats aggregates an owner's projects in a single pass
	Stats(ctx context.Context, ownerID uint64, now time.Time) (models.ProjectStats, error)

	// CountByStatus groups an owner's projects by status
	CountByStatus(ctx context.Context, ownerID uint64) ([]models.StatusCount, error)

	// DeadlinesBetween returns an owner's unfinished projects with a deadline
	// in [from, to], soonest first
	DeadlinesBetween(ctx context.Context, ownerID uint64, from, to time.Time) ([]models.Project, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	OwnerID  uint64
	Status   *models.ProjectStatus
	Priority *models.ProjectPriority
	Category *models.ProjectCategory
	Search   string
	Limit    int
}

// ActivityRepository persists audit records
type ActivityRepository interface {
	// Create stores an activity record
	Create(ctx context.Context, activity *models.Activity) error
}

// translateError maps driver specific unique violations onto ErrDuplicateKey.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code == "23505"
	}
	var mye *mysql.MySQLError
	if errors.As(err, &mye) {
		return mye.Number == 1062
	}
	return false
}
