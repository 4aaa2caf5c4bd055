package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
)

// CounterReconciler periodically recomputes every user's task counters so
// drift left by a crash between a task write and its recompute is repaired.
type CounterReconciler struct {
	userRepo repository.UserRepository
	sync     *CounterSync
	logger   *zap.Logger
	cron     *cron.Cron
	timeout  time.Duration
}

// NewCounterReconciler creates a reconciler running on schedule, a standard
// cron expression or "@every <duration>". An empty schedule disables the sweep
// but leaves Sweep callable.
func NewCounterReconciler(userRepo repository.UserRepository, sync *CounterSync, logger *zap.Logger, schedule string) (*CounterReconciler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &CounterReconciler{
		userRepo: userRepo,
		sync:     sync,
		logger:   logger,
		timeout:  5 * time.Minute,
	}
	if schedule == "" {
		return r, nil
	}

	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if _, err := r.Sweep(ctx); err != nil {
			r.logger.Error("counter reconcile failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start launches the cron scheduler.
func (r *CounterReconciler) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("counter reconciler started")
}

// Stop waits for a running sweep to finish or ctx to expire.
func (r *CounterReconciler) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("counter reconciler stopped")
}

// Sweep recomputes the counters of every user and returns how many were
// updated. A failure for one user does not stop the sweep.
func (r *CounterReconciler) Sweep(ctx context.Context) (int, error) {
	ids, err := r.userRepo.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	updated := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if _, err := r.sync.Recompute(ctx, id); err != nil {
			r.logger.Warn("counter reconcile skipped user", zap.Uint64("user_id", id), zap.Error(err))
			continue
		}
		updated++
	}

	r.logger.Info("counter reconcile finished", zap.Int("users", len(ids)), zap.Int("updated", updated))
	return updated, nil
}
