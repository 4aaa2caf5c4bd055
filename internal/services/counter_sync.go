package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/yukikurage/taskflow-api/internal/events"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// CounterSync keeps User.TasksCompleted and User.TasksActive equal to the
// number of completed and open tasks assigned to each user.
type CounterSync struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	logger   *zap.Logger
	group    singleflight.Group
}

// NewCounterSync creates a new CounterSync
func NewCounterSync(userRepo repository.UserRepository, taskRepo repository.TaskRepository, logger *zap.Logger) *CounterSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounterSync{
		userRepo: userRepo,
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// HandleTaskEvent recomputes the counters of every user touched by event.
// Failures are logged and never reach the task write that caused them.
func (s *CounterSync) HandleTaskEvent(ctx context.Context, event events.TaskEvent) {
	for _, userID := range event.Affected() {
		if _, err := s.Recompute(ctx, userID); err != nil {
			level := s.logger.Warn
			if errors.Is(err, gorm.ErrRecordNotFound) {
				level = s.logger.Debug
			}
			level("counter sync failed",
				zap.String("event", string(event.Kind)),
				zap.Uint64("task_id", event.TaskID),
				zap.Uint64("user_id", userID),
				zap.Error(err),
			)
		}
	}
}

// Recompute counts the user's assigned tasks and persists the result.
// Concurrent calls for the same user share one computation; a caller that
// joined a computation already in flight runs one more round so writes
// committed after that computation started are not missed.
func (s *CounterSync) Recompute(ctx context.Context, userID uint64) (models.AssigneeCounts, error) {
	key := strconv.FormatUint(userID, 10)

	var (
		v   any
		err error
	)
	for round := 0; round < 2; round++ {
		var shared bool
		v, err, shared = s.group.Do(key, func() (any, error) {
			return s.recompute(ctx, userID)
		})
		if !shared {
			break
		}
	}
	return v.(models.AssigneeCounts), err
}

func (s *CounterSync) recompute(ctx context.Context, userID uint64) (models.AssigneeCounts, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return models.AssigneeCounts{}, err
	}
	counts, err := s.taskRepo.CountForAssignee(ctx, userID)
	if err != nil {
		return models.AssigneeCounts{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	if err := s.userRepo.UpdateCounters(ctx, userID, counts); err != nil {
		return models.AssigneeCounts{}, fmt.Errorf("failed to update counters: %w", err)
	}
	return counts, nil
}
