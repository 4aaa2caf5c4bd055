package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/events"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService exposes the user directory. It is global: any signed-in user
// can read it.
type UserService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	counters *CounterSync
	bus      *events.Bus
	activity *ActivityRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	counters *CounterSync,
	bus *events.Bus,
	activity *ActivityRecorder,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &UserService{
		userRepo: userRepo,
		taskRepo: taskRepo,
		counters: counters,
		bus:      bus,
		activity: activity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListUsersInput represents filters for listing users
type ListUsersInput struct {
	Search     string
	Pagination utils.PaginationParams
}

// UserPatch lists the directory fields that may be changed. Nil fields are
// left untouched.
type UserPatch struct {
	Name  *string
	Email *string
}

// ListUsers returns one page of the directory
func (s *UserService) ListUsers(ctx context.Context, input ListUsersInput) ([]models.User, utils.PaginationResponse, error) {
	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Search:     input.Search,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, utils.PaginationResponse{}, fmt.Errorf("failed to list users: %w", err)
	}
	return users, input.Pagination.Response(total), nil
}

// SearchUsers is the lightweight lookup used for autocomplete
func (s *UserService) SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < constants.MinUserSearchLength {
		return nil, apierrors.Validationf("Search query must be at least %d characters", constants.MinUserSearchLength)
	}

	users, _, err := s.userRepo.List(ctx, repository.UserFilter{
		Search:     q,
		Pagination: utils.NewPaginationParams(1, limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// GetUser returns one user
func (s *UserService) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	return s.findUser(ctx, userID)
}

// UpdateUser applies patch to a user
func (s *UserService) UpdateUser(ctx context.Context, actorID, userID uint64, patch UserPatch) (*models.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed, err := applyUserPatch(user, patch.Name, patch.Email)
	if err != nil {
		return nil, err
	}
	if !changed {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.activity.Record(ctx, models.Activity{
		UserID:      actorID,
		Action:      models.ActivityUpdated,
		ActionType:  models.ActivityTypeUser,
		TargetID:    user.ID,
		Description: "User profile updated",
	})
	return user, nil
}

// DeleteUser removes a user with the tasks, projects and memberships they
// own, then refreshes the counters of whoever those tasks were assigned to.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID uint64) error {
	if _, err := s.findUser(ctx, userID); err != nil {
		return err
	}

	assignees, err := s.taskRepo.AssigneeIDsForOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list assignees: %w", err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.Uint64("user_id", userID), zap.Uint64("actor_id", actorID))
	s.bus.Publish(ctx, events.TaskEvent{
		Kind:    events.OwnerRemoved,
		UserIDs: assignees,
	})
	s.activity.Record(ctx, models.Activity{
		UserID:      actorID,
		Action:      models.ActivityDeleted,
		ActionType:  models.ActivityTypeUser,
		TargetID:    userID,
		Description: "User account deleted",
	})
	return nil
}

// Stats summarizes the whole directory
func (s *UserService) Stats(ctx context.Context) (models.UserStats, error) {
	stats, err := s.userRepo.Stats(ctx, s.now().Add(-constants.RecentActivityWindow))
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to compute user stats: %w", err)
	}
	return stats, nil
}

// RefreshMetrics recomputes a user's task counters on demand
func (s *UserService) RefreshMetrics(ctx context.Context, userID uint64) (*models.User, error) {
	if _, err := s.counters.Recompute(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to refresh metrics: %w", err)
	}
	return s.findUser(ctx, userID)
}

func (s *UserService) findUser(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
